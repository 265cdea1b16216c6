package util

import (
	"bytes"
	"log"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	getopt "github.com/pborman/getopt/v2"
)

var ProfileStartStop func() func()

// ReadOptimizations is populated by individual OS-specific init()s
var ReadOptimizations []FileHandleOptimization

type FileHandleOptimization struct {
	Name   string
	Action func(
		file *os.File,
		stat os.FileInfo,
	) error
}

// ApplyReadOptimizations runs every registered hint against fh, logging
// failures without aborting: the hints are purely opportunistic
func ApplyReadOptimizations(fh *os.File, stat os.FileInfo) {
	for _, opt := range ReadOptimizations {
		if err := opt.Action(fh, stat); err != nil && err != os.ErrInvalid {
			log.Printf("Failed to apply read optimization hint '%s' to %s: %s\n", opt.Name, fh.Name(), err)
		}
	}
}

func IsTTY(w interface{}) bool {
	f, isFh := w.(*os.File)
	if !isFh {
		return false
	}
	s, err := f.Stat()
	return err == nil && (s.Mode()&os.ModeCharDevice) != 0
}

func Commify(inVal int) []byte {
	return Commify64(int64(inVal))
}

func Commify64(inVal int64) []byte {
	inStr := strconv.FormatInt(inVal, 10)

	outStr := make([]byte, 0, 20)
	i := 1

	if inVal < 0 {
		outStr = append(outStr, '-')
		i++
	}

	for i <= len(inStr) {
		outStr = append(outStr, inStr[i-1])

		if i < len(inStr) &&
			((len(inStr)-i)%3) == 0 {
			outStr = append(outStr, ',')
		}

		i++
	}

	return outStr
}

func AvailableMapKeys(m interface{}) string {
	v := reflect.ValueOf(m)
	if v.Kind() != reflect.Map {
		log.Panicf("input type not a map: %v", v)
	}
	avail := make([]string, 0, v.Len())
	for _, k := range v.MapKeys() {
		avail = append(avail, "'"+k.String()+"'")
	}
	sort.Strings(avail)
	return strings.Join(avail, ", ")
}

// ugly as sin due to lack of lookaheads :/
var indenter = regexp.MustCompile(`(?m)^([^\n])`)
var nonOptIndenter = regexp.MustCompile(`(?m)^\s{0,12}([^\s\n\-])`)
var dashStripper = regexp.MustCompile(`(?m)^(\s*)\-\-`)

func SubHelp(description string, optSet *getopt.Set) (sh []string) {

	sh = append(
		sh,
		string(indenter.ReplaceAll(
			[]byte(description),
			[]byte(`  $1`),
		)),
	)

	if optSet == nil {
		return sh
	}

	b := bytes.NewBuffer(make([]byte, 0, 1024))
	optSet.PrintOptions(b)

	sh = append(sh, "  ------------\n   SubOptions")
	sh = append(sh,
		string(dashStripper.ReplaceAll(
			nonOptIndenter.ReplaceAll(
				b.Bytes(),
				[]byte(`              $1`),
			),
			[]byte(`$1  `),
		)),
	)

	return sh
}
