/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: explore.go
Description: Explore command implementation. Wires static analysis, the device
channel, the exploration engine, and local artifact storage into one run, with
signal handling for graceful shutdown and a JSON result written at the end.
*/

package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kleascm/appmapper/pkg/device"
	"github.com/kleascm/appmapper/pkg/explorer"
	"github.com/kleascm/appmapper/pkg/static"
	"github.com/kleascm/appmapper/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunExplore executes one exploration run end to end
func RunExplore(cmd *cobra.Command, args []string) error {
	fmt.Println("🗺️  AppMapper - Starting Exploration Run")
	fmt.Println("========================================")
	fmt.Println()

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := SetupLogging()
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	defer logger.Close()

	// Static analysis supplies the entry-point surface when an APK is given
	req := explorer.Request{
		Package:   viper.GetString("package"),
		APKPath:   viper.GetString("apk_path"),
		Component: viper.GetString("component"),
	}
	if req.APKPath != "" {
		analyzer := static.NewAnalyzer()
		if meta, aerr := analyzer.AnalyzeAPK(req.APKPath); aerr == nil {
			req.Activities = meta.Activities
			if req.Package == "" {
				req.Package = meta.PackageName
			}
		} else {
			logger.Warning("Static analysis failed, continuing without entry points",
				map[string]interface{}{"error": aerr.Error()})
		}
	}
	if req.Package == "" {
		return fmt.Errorf("package name is required")
	}

	deviceConfig := createDeviceConfig()
	if err := deviceConfig.Validate(); err != nil {
		return fmt.Errorf("invalid device configuration: %w", err)
	}

	exploreConfig := createExploreConfig()
	if err := exploreConfig.Validate(); err != nil {
		return fmt.Errorf("invalid exploration configuration: %w", err)
	}

	store, err := storage.NewLocal(viper.GetString("output_dir"))
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}

	channel := device.NewAndroidChannel(deviceConfig, logger.GetLogger())
	engine := explorer.NewEngine(channel, exploreConfig, logger.GetLogger())
	engine.SetStore(store)
	engine.SetPolicy(createPolicy())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\n🛑 Received shutdown signal, stopping exploration...")
		cancel()
	}()

	result, err := engine.Run(ctx, req)
	if err != nil {
		return fmt.Errorf("exploration failed: %w", err)
	}

	key := fmt.Sprintf("results/%s.json", result.RunID)
	if _, err := store.StoreJSON(key, result, map[string]interface{}{"package": result.Package}); err != nil {
		return fmt.Errorf("failed to store result: %w", err)
	}

	logger.LogRunStats(result.RunID, len(result.Screens), len(result.Transitions),
		result.TotalActions, result.Coverage, nil)

	fmt.Println()
	fmt.Println("📊 Exploration Result")
	fmt.Printf("  Run ID:      %s\n", result.RunID)
	fmt.Printf("  Package:     %s\n", result.Package)
	fmt.Printf("  Screens:     %d\n", len(result.Screens))
	fmt.Printf("  Transitions: %d\n", len(result.Transitions))
	fmt.Printf("  Actions:     %d\n", result.TotalActions)
	fmt.Printf("  Coverage:    %.0f%%\n", result.Coverage*100)
	if result.Degraded {
		fmt.Printf("  Degraded:    %s\n", result.DegradedReason)
	}
	fmt.Printf("  Result file: %s\n", store.LocalPath(key))
	fmt.Println("\n✨ Exploration completed!")
	return nil
}

// createDeviceConfig builds the device channel configuration from viper
func createDeviceConfig() *device.Config {
	config := device.DefaultConfig()
	config.Serial = viper.GetString("device.serial")
	config.ADBPath = viper.GetString("device.adb_path")
	config.EmulatorPath = viper.GetString("device.emulator_path")
	config.AVDName = viper.GetString("device.avd")
	config.Port = viper.GetInt("device.port")
	config.Headless = viper.GetBool("device.headless")
	config.BootTimeout = viper.GetDuration("device.boot_timeout")
	config.CommandTimeout = viper.GetDuration("device.command_timeout")
	return config
}

// createExploreConfig builds the engine configuration from viper
func createExploreConfig() *explorer.Config {
	config := explorer.DefaultConfig()
	config.MaxSteps = viper.GetInt("explore.max_steps")
	config.TimeBudget = viper.GetDuration("explore.time_budget")
	config.SettleDelay = viper.GetDuration("explore.settle_delay")
	config.CaptureScreenshots = viper.GetBool("explore.screenshots")
	return config
}

// createPolicy builds the target selection policy from viper
func createPolicy() explorer.TargetPolicy {
	seed := viper.GetInt64("explore.seed")
	switch viper.GetString("explore.policy") {
	case "frontier":
		return explorer.NewFrontierPolicy(seed)
	default:
		return explorer.NewRandomPolicy(seed)
	}
}
