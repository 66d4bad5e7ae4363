package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/portwatch"
)

// The interactive loop is a thin translation layer: one line of input
// becomes one controller transition, every controller error is reported
// inline and the loop keeps going. Only quit (or EOF) ends it.
func runMenu(in io.Reader, out io.Writer, ctrl *portwatch.ActionController) error {
	scanner := bufio.NewScanner(in)

	for ctrl.State() != portwatch.Idle {
		prompt(out, ctrl)
		if !scanner.Scan() {
			ctrl.Quit()
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if err := dispatch(out, ctrl, input); err != nil {
			warnMark.Fprintf(out, "%v\n", err)
		}
	}
	return scanner.Err()
}

func prompt(out io.Writer, ctrl *portwatch.ActionController) {
	switch ctrl.State() {
	case portwatch.Listing:
		renderRows(out, ctrl)
		fmt.Fprint(out, "\n[row number] inspect  [s]ave  [q]uit > ")
	case portwatch.Inspecting:
		if r, ok := ctrl.Current(); ok {
			renderRow(out, r)
		}
		fmt.Fprint(out, "\n[k]ill  [s]ave  [b]ack  [q]uit > ")
	}
}

func dispatch(out io.Writer, ctrl *portwatch.ActionController, input string) error {
	switch input {
	case "q", "quit":
		ctrl.Quit()
		return nil
	case "b", "back":
		ctrl.Back()
		return nil
	case "s", "save":
		fpath, err := ctrl.Save()
		if err != nil {
			return err
		}
		freeMark.Fprintf(out, "snapshot saved to %s\n", fpath)
		return nil
	case "k", "kill":
		if err := ctrl.Kill(); err != nil {
			return err
		}
		freeMark.Fprintln(out, "process terminated, row marked stale")
		return nil
	}

	row, err := strconv.Atoi(input)
	if err != nil {
		return fmt.Errorf("unknown command %q", input)
	}
	return ctrl.Select(row)
}
