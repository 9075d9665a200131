// Package console runs an interactive bandit session on a terminal.
package console

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/logrusorgru/aurora"

	"github.com/boristopalov/bandits/pkg/core"
	"github.com/boristopalov/bandits/pkg/memory"
)

const (
	exitCommand    = "exit"
	historyCommand = "history"
)

// Round is one manual pull.
type Round struct {
	Number int
	Arm    string
	Reward float64
}

// Summary is the outcome of a session.
type Summary struct {
	Rounds      int
	TotalReward float64
}

type Options struct {
	Colors      bool
	HistorySize int
}

type Option func(*Options)

func WithColors(enabled bool) Option {
	return func(o *Options) {
		o.Colors = enabled
	}
}

func WithHistorySize(n int) Option {
	return func(o *Options) {
		o.HistorySize = n
	}
}

// Play prompts for arm names on in until "exit" or end of input, printing each
// reward rounded to two decimals. "history" lists the most recent rounds.
func Play(env core.Environment, in io.Reader, out io.Writer, opts ...Option) (Summary, error) {
	o := Options{Colors: true, HistorySize: 10}
	for _, opt := range opts {
		opt(&o)
	}
	if o.HistorySize < 1 {
		o.HistorySize = 1
	}

	au := aurora.NewAurora(o.Colors)
	arms := env.Arms()
	valid := make(map[string]bool, len(arms))
	for _, arm := range arms {
		valid[arm] = true
	}
	history := memory.NewMemory[Round](o.HistorySize)

	var sum Summary
	scanner := bufio.NewScanner(in)
loop:
	for {
		fmt.Fprintf(out, "%s Enter an arm from the list [%s] (or '%s'): ",
			au.Bold(fmt.Sprintf("[ROUND %d]", sum.Rounds+1)), strings.Join(arms, ", "), exitCommand)

		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return sum, err
			}
			fmt.Fprintln(out)
			break
		}
		input := strings.TrimSpace(scanner.Text())

		switch {
		case input == exitCommand:
			break loop
		case input == historyCommand:
			printHistory(out, au, history.All())
		case valid[input]:
			r, err := env.Reward(input)
			if err != nil {
				return sum, err
			}
			reward := round2(r)
			fmt.Fprintf(out, "\tReward received: %s\n", colorReward(au, reward))
			sum.TotalReward += reward
			sum.Rounds++
			history.Store(Round{Number: sum.Rounds, Arm: input, Reward: reward})
		default:
			fmt.Fprintln(out, au.Red("Invalid input"))
		}
	}

	fmt.Fprintf(out, "\t%s\n", au.Yellow("EXITING"))
	fmt.Fprintf(out, "\n\nTotal reward of %.2f in %d rounds\n", round2(sum.TotalReward), sum.Rounds)
	return sum, nil
}

func printHistory(out io.Writer, au aurora.Aurora, rounds []Round) {
	if len(rounds) == 0 {
		fmt.Fprintln(out, "\tNo rounds played yet")
		return
	}
	for _, r := range rounds {
		fmt.Fprintf(out, "\tround %d: arm %s -> %s\n", r.Number, r.Arm, colorReward(au, r.Reward))
	}
}

func colorReward(au aurora.Aurora, reward float64) aurora.Value {
	s := fmt.Sprintf("%.2f", reward)
	if reward < 0 {
		return au.Red(s)
	}
	return au.Green(s)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
