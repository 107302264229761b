package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var port string

var rootCmd = &cobra.Command{
	Use:   "yt-blog",
	Short: "Turn video URLs into blog posts or transcripts over HTTP",
	Long: `yt-blog downloads the audio track of a video and either asks a hosted
generative model to write a blog post from it or runs it through a
speech-to-text model.`,
	SilenceUsage: true,
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&port, "port", "p", "", "listen port (overrides SERVER_PORT)")
}
