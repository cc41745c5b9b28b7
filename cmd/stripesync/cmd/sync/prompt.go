package sync

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CommitQuestion asks the operator to enable commit mode.
const CommitQuestion = "To run the command in commit mode, please confirm?"

// Choice is one entry of the interactive menu. An empty Target cancels.
type Choice struct {
	Title       string
	Description string
	Target      string
}

// Menu lists the interactive commands.
var Menu = []Choice{
	{Title: "Sync stripe customers", Description: "Check and sync users to stripe customers", Target: "users"},
	{Title: "Sync stripe products", Description: "Check and sync rooms to stripe products", Target: "rooms"},
	{Title: "Sync stripe subscriptions", Description: "Check and sync leases to stripe subscriptions", Target: "leases"},
	{Title: "Run all checks", Description: "Runs all the checks in sequence: users -> rooms -> leases", Target: TargetAll},
	{Title: "Cancel", Description: "Cancel execution"},
}

// Prompter asks questions on a line based input.
type Prompter struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPrompter returns a Prompter reading answers from in.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{in: bufio.NewReader(in), out: out}
}

// Confirm asks a yes/no question. Anything but y or yes, including a
// closed input, answers no.
func (p *Prompter) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s (y/N) ", question)

	answer, ok, err := p.readLine()
	if err != nil || !ok {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Choose prints choices and reads the selected number. An empty answer
// selects the first choice; a closed input selects the last one.
func (p *Prompter) Choose(title string, choices []Choice) (Choice, error) {
	fmt.Fprintf(p.out, "%s\n", title)
	for i, c := range choices {
		fmt.Fprintf(p.out, "  %d) %s - %s\n", i+1, c.Title, c.Description)
	}

	for {
		fmt.Fprintf(p.out, "Enter a number [1]: ")
		answer, ok, err := p.readLine()
		if err != nil {
			return Choice{}, err
		}
		if !ok {
			return choices[len(choices)-1], nil
		}
		if answer == "" {
			return choices[0], nil
		}
		n, err := strconv.Atoi(answer)
		if err == nil && n >= 1 && n <= len(choices) {
			return choices[n-1], nil
		}
		fmt.Fprintf(p.out, "Please enter a number between 1 and %d\n", len(choices))
	}
}

// readLine returns the next trimmed line. ok is false once the input is
// exhausted.
func (p *Prompter) readLine() (string, bool, error) {
	line, err := p.in.ReadString('\n')
	if err == io.EOF {
		if line == "" {
			return "", false, nil
		}
		return strings.TrimSpace(line), true, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(line), true, nil
}
