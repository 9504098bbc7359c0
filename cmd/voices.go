package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JamesWuHK/demo-video-generator/internal/tts"
)

var voiceLanguage string

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List available narration voices",
	RunE: func(cmd *cobra.Command, args []string) error {
		voices, err := tts.ListVoices(cmd.Context(), voiceLanguage)
		if err != nil {
			return err
		}
		for _, v := range voices {
			fmt.Printf("%-40s %s\n", v.Name, v.Gender)
		}
		return nil
	},
}

func init() {
	voicesCmd.Flags().StringVarP(&voiceLanguage, "language", "l", "", "filter by locale prefix, e.g. en or zh-CN")
	rootCmd.AddCommand(voicesCmd)
}
