package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/mysociety/appgtrack/internal/resolve"
)

// promptProvider adjudicates uncertain names interactively: candidates are
// shown ranked by score and the operator picks a number, supplies an
// identifier by hand, marks the name unmatched, or skips it.
type promptProvider struct {
	in  *bufio.Scanner
	out io.Writer
}

func newPromptProvider(in io.Reader, out io.Writer) *promptProvider {
	return &promptProvider{in: bufio.NewScanner(in), out: out}
}

func (p *promptProvider) Decide(raw string, candidates []resolve.Candidate) (resolve.Choice, error) {
	fmt.Fprintf(p.out, "\nResolving: %s\n", raw)

	if len(candidates) == 0 {
		fmt.Fprintln(p.out, "No roster candidates above the similarity floor.")
	} else {
		tw := table.NewWriter()
		tw.SetOutputMirror(p.out)
		tw.AppendHeader(table.Row{"#", "Score", "Name", "ID", "Chamber", "Active"})
		for i, c := range candidates {
			tw.AppendRow(table.Row{
				i + 1,
				fmt.Sprintf("%.3f", c.Score),
				c.Person.DisplayName(),
				c.Person.ID,
				string(c.Person.Chamber),
				c.Person.Active,
			})
		}
		tw.Render()
	}

	for {
		fmt.Fprint(p.out, "Choose number, (m)anual ID, (u)nmatched, (s)kip: ")
		if !p.in.Scan() {
			return resolve.Choice{Kind: resolve.ChoiceSkip}, p.in.Err()
		}
		answer := strings.TrimSpace(p.in.Text())

		switch {
		case answer == "s" || answer == "":
			return resolve.Choice{Kind: resolve.ChoiceSkip}, nil
		case answer == "u":
			return resolve.Choice{Kind: resolve.ChoiceUnmatched}, nil
		case answer == "m":
			fmt.Fprint(p.out, "Person ID: ")
			if !p.in.Scan() {
				return resolve.Choice{Kind: resolve.ChoiceSkip}, p.in.Err()
			}
			id := strings.TrimSpace(p.in.Text())
			if id == "" {
				continue
			}
			return resolve.Choice{Kind: resolve.ChoiceManual, PersonID: id}, nil
		default:
			n, err := strconv.Atoi(answer)
			if err != nil || n < 1 || n > len(candidates) {
				fmt.Fprintln(p.out, "Unrecognized choice.")
				continue
			}
			return resolve.Choice{Kind: resolve.ChoiceAccept, PersonID: candidates[n-1].Person.ID}, nil
		}
	}
}
