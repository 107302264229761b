package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve /generate_blog and /transcribe on one listener",
	Example: `  GENAI_API_KEY=... yt-blog serve
  yt-blog serve --port 9000`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), mount{blog: true, transcript: true})
	},
}

var blogCmd = &cobra.Command{
	Use:   "blog",
	Short: "Serve POST /generate_blog backed by Gemini",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), mount{blog: true})
	},
}

var transcribeCmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Serve POST /transcribe backed by a whisper model",
	Example: `  # whisper server on localhost
  WHISPER_BASE_URL=http://localhost:9000/v1 yt-blog transcribe

  # in-process python script
  TRANSCRIBER=script yt-blog transcribe`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer(cmd.Context(), mount{transcript: true})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, blogCmd, transcribeCmd)
}
