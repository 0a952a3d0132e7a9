package main

import (
	"fmt"
	"io"

	"github.com/absfs/searchset"
	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [pattern]",
	Short: "List members of every archive, lowest priority first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var list searchset.MemberList
		reg := searchset.Registry()
		if len(args) == 1 {
			reg.ListMatchingMembers(&list, args[0])
		} else {
			reg.ListMembers(&list)
		}
		out := cmd.OutOrStdout()
		for _, m := range list {
			if m.DisplayName() != m.Name() {
				fmt.Fprintf(out, "%s\t(%s)\n", m.Name(), m.DisplayName())
				continue
			}
			fmt.Fprintln(out, m.Name())
		}
		return nil
	},
}

var catCmd = &cobra.Command{
	Use:   "cat <name>",
	Short: "Write a member to stdout",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := searchset.Registry().CreateReadStreamForMember(args[0])
		if err != nil {
			return err
		}
		defer s.Close()
		_, err = io.Copy(cmd.OutOrStdout(), s)
		return err
	},
}

var hasCmd = &cobra.Command{
	Use:   "has <name>",
	Short: "Report whether any archive has a member",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !searchset.Registry().HasFile(args[0]) {
			return fmt.Errorf("%s: not found", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), args[0])
		return nil
	},
}

var whichCmd = &cobra.Command{
	Use:   "which <name>",
	Short: "Show the archive a member is served from",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		arc, ok := searchset.Registry().Resolve(args[0])
		if !ok {
			return fmt.Errorf("%s: not found", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), arc)
		return nil
	},
}

var archivesCmd = &cobra.Command{
	Use:   "archives",
	Short: "List registered archives in lookup order",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg := searchset.Registry()
		for _, name := range reg.Names() {
			p, _ := reg.Priority(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", p, name)
		}
		return nil
	},
}
