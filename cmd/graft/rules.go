package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jward/graft"
	"github.com/jward/graft/script"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Validate and list the loaded rule set",
	Long:  "Loads the rule scripts from --rules, compiles every pattern for the chosen language, and prints the rules in dispatch order. Fails on the first malformed pattern or header.",
	Args:  cobra.NoArgs,
	RunE:  runRules,
}

func runRules(cmd *cobra.Command, args []string) error {
	if flagRules == "" {
		return fmt.Errorf("no rules directory; pass --rules")
	}
	rules, err := script.LoadRules(os.DirFS(flagRules))
	if err != nil {
		return err
	}
	eng, err := graft.New(flagLanguage)
	if err != nil {
		return err
	}
	if err := eng.Register(graft.Provider(rules...)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PRIORITY\tNAME\tKIND\tCAPTURES\tPATTERN")
	for _, d := range eng.Rules() {
		r := d.Rule()
		var captures []string
		for _, v := range d.Vars() {
			name := "$" + v.Name
			if v.Variadic {
				name += "$"
			}
			captures = append(captures, name)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
			r.Priority, r.Name, r.Kind, strings.Join(captures, " "), r.Pattern)
	}
	return tw.Flush()
}
