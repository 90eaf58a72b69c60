package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/kalvi/core"
)

func (cli *commandLine) success(format string, args ...interface{}) {
	color.New(color.FgGreen).Fprintf(cli.out, format+"\n", args...)
}

func (cli *commandLine) title(format string, args ...interface{}) {
	color.New(color.FgYellow).Fprintf(cli.out, format+"\n", args...)
}

// validationErr flattens validation errors into a single "field: message" error; other errors are returned as is.
func (cli *commandLine) validationErr(err error) error {
	var msgs []string
	switch vErr := errors.Cause(err).(type) {
	case validator.ValidationErrors:
		for _, fe := range vErr {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field(), fe.Translate(cli.translator)))
		}
	case *core.ValidationError:
		for _, fe := range vErr.Fields {
			msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Error))
		}
		if len(msgs) == 0 {
			return err
		}
	default:
		return err
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}
