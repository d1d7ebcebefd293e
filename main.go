package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rm-hull/telstra-messaging-api/cmd"
)

func main() {
	var dbPath string
	var port int
	var debug bool
	var to, message, file, subject string

	rootCmd := &cobra.Command{
		Use:   "telstra-messaging",
		Short: "Telstra Messaging API client and HTTP gateway",
	}
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "data/messages.db", "Path to message log SQLite database")

	smsCmd := &cobra.Command{
		Use:   "sms",
		Short: "Send an SMS",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.SendSMS(dbPath, to, message)
		},
	}
	smsCmd.Flags().StringVar(&to, "to", "", "Recipient phone number")
	smsCmd.Flags().StringVar(&message, "message", "", "Message body")
	_ = smsCmd.MarkFlagRequired("to")
	_ = smsCmd.MarkFlagRequired("message")

	mmsCmd := &cobra.Command{
		Use:   "mms",
		Short: "Send an image as an MMS",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.SendMMS(dbPath, to, file, subject)
		},
	}
	mmsCmd.Flags().StringVar(&to, "to", "", "Recipient phone number")
	mmsCmd.Flags().StringVar(&file, "file", "", "Image file to send")
	mmsCmd.Flags().StringVar(&subject, "subject", "", "Optional MMS subject")
	_ = mmsCmd.MarkFlagRequired("to")
	_ = mmsCmd.MarkFlagRequired("file")

	provisionCmd := &cobra.Command{
		Use:   "provision",
		Short: "Provision a virtual number for the account",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.Provision(dbPath)
		},
	}

	apiServerCmd := &cobra.Command{
		Use:   "api-server",
		Short: "Start HTTP API server",
		RunE: func(_ *cobra.Command, _ []string) error {
			return cmd.ApiServer(dbPath, port, debug)
		},
	}
	apiServerCmd.Flags().IntVar(&port, "port", 8080, "Port to run HTTP server on")
	apiServerCmd.Flags().BoolVar(&debug, "debug", false, "Enable debugging (pprof) - WARNING: do not enable in production")

	rootCmd.AddCommand(smsCmd, mmsCmd, provisionCmd, apiServerCmd)
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
