// Client-side control commands: thin websocket clients that dial a
// running `cncstream run --status-addr` process and exchange a single
// statusd.Command/Status round trip (spec §6's user-command surface,
// reusing the status socket rather than a second control port).
package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/chrisns/cnc-motion-core/internal/statusd"
)

var controlAddr string

func controlCommands() []*cobra.Command {
	actions := []string{"feed-hold", "resume", "cancel", "reset", "status"}
	cmds := make([]*cobra.Command, 0, len(actions))
	for _, action := range actions {
		action := action
		c := &cobra.Command{
			Use:   action,
			Short: fmt.Sprintf("Send %s to a running cncstream job", action),
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return sendCommand(action)
			},
		}
		c.Flags().StringVar(&controlAddr, "status-addr", "", "address of the running job's status socket (e.g. :8088)")
		cmds = append(cmds, c)
	}
	return cmds
}

func sendCommand(action string) error {
	if controlAddr == "" {
		return fmt.Errorf("--status-addr is required")
	}

	u := url.URL{Scheme: "ws", Host: controlAddr, Path: "/status"}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", controlAddr, err)
	}
	defer conn.Close()

	payload, err := json.Marshal(statusd.Command{Action: action})
	if err != nil {
		return err
	}
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, resp, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("no response from job: %w", err)
	}

	var result struct {
		statusd.Status
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if result.Error != "" {
		return fmt.Errorf("%s", result.Error)
	}

	fmt.Printf("job %s: state=%s lines=%d distance_mm=%.2f\n",
		result.JobID, result.State, result.LinesDone, result.DistanceDone)
	return nil
}
