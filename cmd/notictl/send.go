package main

import (
	"fmt"

	godbus "github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"

	"github.com/jmylchreest/notid/internal/dbus"
)

var sendOpts struct {
	appName string
	urgency string
	timeout int32
	replace uint32
	value   int32
}

var sendCmd = &cobra.Command{
	Use:   "send <summary> [body]",
	Short: "Send a notification",
	Long: `Send a notification through the standard org.freedesktop.Notifications
interface. Useful for testing the daemon and for scripts.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVarP(&sendOpts.appName, "app-name", "a", "notictl",
		"Application name")
	sendCmd.Flags().StringVarP(&sendOpts.urgency, "urgency", "u", "normal",
		"Urgency level (low, normal, critical)")
	sendCmd.Flags().Int32VarP(&sendOpts.timeout, "timeout", "t", -1,
		"Expiration timeout in milliseconds (-1 = daemon default, 0 = never)")
	sendCmd.Flags().Uint32VarP(&sendOpts.replace, "replace", "r", 0,
		"ID of the notification to replace")
	sendCmd.Flags().Int32Var(&sendOpts.value, "value", -1,
		"Progress value 0-100, shown as a bar")
	rootCmd.AddCommand(sendCmd)
}

func runSend(cmd *cobra.Command, args []string) error {
	urgency, err := parseUrgency(sendOpts.urgency)
	if err != nil {
		return err
	}

	summary := args[0]
	body := ""
	if len(args) > 1 {
		body = args[1]
	}

	hints := map[string]godbus.Variant{
		"urgency": godbus.MakeVariant(urgency),
	}
	if sendOpts.value >= 0 {
		hints["value"] = godbus.MakeVariant(sendOpts.value)
	}

	conn, err := godbus.SessionBus()
	if err != nil {
		return fmt.Errorf("connecting to session bus: %w", err)
	}
	obj := conn.Object(dbus.DBusBusName, godbus.ObjectPath(dbus.DBusPath))

	var id uint32
	call := obj.Call("org.freedesktop.Notifications.Notify", 0,
		sendOpts.appName, sendOpts.replace, "", summary, body,
		[]string{}, hints, sendOpts.timeout)
	if err := call.Store(&id); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}

	fmt.Println(id)
	return nil
}

func parseUrgency(s string) (byte, error) {
	switch s {
	case "low":
		return 0, nil
	case "normal":
		return 1, nil
	case "critical":
		return 2, nil
	default:
		return 0, fmt.Errorf("unknown urgency %q (want low, normal or critical)", s)
	}
}
