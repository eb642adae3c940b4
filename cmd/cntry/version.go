package main

import (
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("cntry %s\n", Version)
		cmd.Println("Country lookup")
		cmd.Println("github.com/pders01/cntry")
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
