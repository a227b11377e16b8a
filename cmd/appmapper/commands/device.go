/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: device.go
Description: Device command implementation. One-off maintenance operations against
a connected device or emulator: uninstall, force-stop, logcat dump, and device
property inspection.
*/

package commands

import (
	"context"
	"fmt"

	"github.com/kleascm/appmapper/pkg/device"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunDevice executes the requested maintenance operations in order
func RunDevice(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	config := device.DefaultConfig()
	config.Serial = viper.GetString("device.serial")
	config.ADBPath = viper.GetString("device.adb_path")
	config.CommandTimeout = viper.GetDuration("device.command_timeout")
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid device configuration: %w", err)
	}

	channel := device.NewAndroidChannel(config, logger.GetLogger())
	ctx := context.Background()
	if err := channel.Start(ctx); err != nil {
		return fmt.Errorf("device not reachable: %w", err)
	}
	defer channel.Stop()

	if pkg := viper.GetString("device.uninstall"); pkg != "" {
		fmt.Printf("[*] Uninstalling %s...\n", pkg)
		if err := channel.Uninstall(ctx, pkg); err != nil {
			return fmt.Errorf("uninstall failed: %w", err)
		}
		fmt.Println("[*] Uninstalled.")
	}

	if pkg := viper.GetString("device.stop_app"); pkg != "" {
		fmt.Printf("[*] Stopping %s...\n", pkg)
		if err := channel.StopApp(ctx, pkg); err != nil {
			return fmt.Errorf("stop failed: %w", err)
		}
		fmt.Println("[*] Stopped.")
	}

	if viper.GetBool("device.logs") {
		lines, err := channel.Logs(ctx)
		if err != nil {
			return fmt.Errorf("logcat failed: %w", err)
		}
		for _, line := range lines {
			fmt.Println(line)
		}
	}

	if viper.GetBool("device.info") {
		info, err := channel.DeviceInfo(ctx)
		if err != nil {
			return fmt.Errorf("device info failed: %w", err)
		}
		fmt.Println("📱 Device Properties")
		for key, value := range info {
			fmt.Printf("  %s = %s\n", key, value)
		}
	}

	return nil
}
