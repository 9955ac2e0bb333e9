package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/codefionn/scenelink/internal/bridgeclient"
)

func sendCmd() *cobra.Command {
	var paramsJSON string

	cmd := &cobra.Command{
		Use:   "send <command-type>",
		Short: "Send one command to the host and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var params map[string]interface{}
			if paramsJSON != "" {
				if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
					return fmt.Errorf("invalid --params JSON: %w", err)
				}
			}

			conn := bridgeclient.New(cfg.Bridge)
			defer conn.Disconnect()

			result, err := conn.SendCommand(context.Background(), args[0], params)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			var pretty interface{}
			if err := json.Unmarshal(result, &pretty); err != nil {
				// Raw passthrough when the result is not JSON-shaped.
				fmt.Println(string(result))
				return nil
			}
			return enc.Encode(pretty)
		},
	}

	cmd.Flags().StringVarP(&paramsJSON, "params", "p", "", `command parameters as a JSON object, e.g. '{"name":"Cube"}'`)

	return cmd
}
