/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: main.go
Description: Main command-line interface for AppMapper. Provides commands for
autonomous UI exploration, static APK analysis, device maintenance, and log
management, with persistent logging and configuration flags.
*/

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kleascm/appmapper/cmd/appmapper/commands"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Configuration
	configFile string
	logLevel   string
	jsonLogs   bool

	// Logging configuration
	logDir      string
	logFormat   string
	logMaxFiles int
	logMaxSize  int64
	logCompress bool

	// Device configuration
	deviceSerial   string
	adbPath        string
	emulatorPath   string
	avdName        string
	emulatorPort   int
	headless       bool
	bootTimeout    time.Duration
	commandTimeout time.Duration

	// Exploration configuration
	apkPath            string
	packageName        string
	component          string
	maxSteps           int
	timeBudget         time.Duration
	settleDelay        time.Duration
	policyName         string
	policySeed         int64
	captureScreenshots bool
	outputDir          string

	// Analysis configuration
	manifestPath string
	aaptPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "appmapper",
		Short: "AppMapper - Autonomous Android UI exploration engine",
		Long: `AppMapper drives Android applications on an emulator or device, fingerprints
every distinct screen it encounters, and builds a behavioral graph of screens and
the actions that connect them. Static APK analysis provides the entry-point
surface, and a degraded fallback keeps runs productive when no device is available.`,
		Version: "1.0.0",
	}

	// Persistent flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Logging level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Use JSON log format")

	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "./logs", "Log output directory")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "custom", "Log format (text, json, custom)")
	rootCmd.PersistentFlags().IntVar(&logMaxFiles, "log-max-files", 10, "Maximum number of log files to keep")
	rootCmd.PersistentFlags().Int64Var(&logMaxSize, "log-max-size", 100*1024*1024, "Maximum log file size in bytes")
	rootCmd.PersistentFlags().BoolVar(&logCompress, "log-compress", false, "Compress rotated log files")

	viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("json_logs", rootCmd.PersistentFlags().Lookup("json-logs"))
	viper.BindPFlag("log_dir", rootCmd.PersistentFlags().Lookup("log-dir"))
	viper.BindPFlag("log_format", rootCmd.PersistentFlags().Lookup("log-format"))
	viper.BindPFlag("log_max_files", rootCmd.PersistentFlags().Lookup("log-max-files"))
	viper.BindPFlag("log_max_size", rootCmd.PersistentFlags().Lookup("log-max-size"))
	viper.BindPFlag("log_compress", rootCmd.PersistentFlags().Lookup("log-compress"))

	// Explore command
	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "Explore an application and build its behavioral graph",
		Long: `Install and launch an application, then autonomously tap through its UI for a
bounded number of steps. Every distinct screen fingerprint becomes a node in the
behavioral graph; every observed screen change becomes a transition attributed to
the action that triggered it. The result is written as JSON to the output directory.`,
		RunE: commands.RunExplore,
	}

	exploreCmd.Flags().StringVar(&apkPath, "apk", "", "Path to APK file to install")
	exploreCmd.Flags().StringVar(&packageName, "package", "", "Application package name (required)")
	exploreCmd.Flags().StringVar(&component, "component", "", "Explicit activity component to launch (package/.Activity)")
	exploreCmd.Flags().StringVar(&deviceSerial, "serial", "", "ADB device serial (uses a managed emulator when --avd is set)")
	exploreCmd.Flags().StringVar(&adbPath, "adb-path", "adb", "Path to the adb binary")
	exploreCmd.Flags().StringVar(&emulatorPath, "emulator-path", "emulator", "Path to the emulator binary")
	exploreCmd.Flags().StringVar(&avdName, "avd", "", "AVD name to boot a managed emulator")
	exploreCmd.Flags().IntVar(&emulatorPort, "port", 5554, "Emulator console port (even, 5554-5800)")
	exploreCmd.Flags().BoolVar(&headless, "headless", true, "Run the emulator without a window")
	exploreCmd.Flags().DurationVar(&bootTimeout, "boot-timeout", 180*time.Second, "Maximum time to wait for device boot")
	exploreCmd.Flags().DurationVar(&commandTimeout, "command-timeout", 30*time.Second, "Timeout per device command")
	exploreCmd.Flags().IntVar(&maxSteps, "max-steps", 0, "Maximum exploration steps (0 = derive from time budget)")
	exploreCmd.Flags().DurationVar(&timeBudget, "time-budget", 5*time.Minute, "Total exploration time budget")
	exploreCmd.Flags().DurationVar(&settleDelay, "settle-delay", time.Second, "Wait after each action before snapshotting")
	exploreCmd.Flags().StringVar(&policyName, "policy", "random", "Target selection policy (random, frontier)")
	exploreCmd.Flags().Int64Var(&policySeed, "seed", 0, "Policy seed (0 = derive from clock)")
	exploreCmd.Flags().BoolVar(&captureScreenshots, "screenshots", false, "Capture a screenshot for each discovered screen")
	exploreCmd.Flags().StringVar(&outputDir, "output", "./appmapper_output", "Directory for run artifacts")

	exploreCmd.MarkFlagRequired("package")

	viper.BindPFlag("apk_path", exploreCmd.Flags().Lookup("apk"))
	viper.BindPFlag("package", exploreCmd.Flags().Lookup("package"))
	viper.BindPFlag("component", exploreCmd.Flags().Lookup("component"))
	viper.BindPFlag("device.serial", exploreCmd.Flags().Lookup("serial"))
	viper.BindPFlag("device.adb_path", exploreCmd.Flags().Lookup("adb-path"))
	viper.BindPFlag("device.emulator_path", exploreCmd.Flags().Lookup("emulator-path"))
	viper.BindPFlag("device.avd", exploreCmd.Flags().Lookup("avd"))
	viper.BindPFlag("device.port", exploreCmd.Flags().Lookup("port"))
	viper.BindPFlag("device.headless", exploreCmd.Flags().Lookup("headless"))
	viper.BindPFlag("device.boot_timeout", exploreCmd.Flags().Lookup("boot-timeout"))
	viper.BindPFlag("device.command_timeout", exploreCmd.Flags().Lookup("command-timeout"))
	viper.BindPFlag("explore.max_steps", exploreCmd.Flags().Lookup("max-steps"))
	viper.BindPFlag("explore.time_budget", exploreCmd.Flags().Lookup("time-budget"))
	viper.BindPFlag("explore.settle_delay", exploreCmd.Flags().Lookup("settle-delay"))
	viper.BindPFlag("explore.policy", exploreCmd.Flags().Lookup("policy"))
	viper.BindPFlag("explore.seed", exploreCmd.Flags().Lookup("seed"))
	viper.BindPFlag("explore.screenshots", exploreCmd.Flags().Lookup("screenshots"))
	viper.BindPFlag("output_dir", exploreCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(exploreCmd)

	// Analyze command
	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Statically analyze an APK or manifest",
		Long: `Extract package metadata, the launcher activity, declared activities, and
permissions from an APK (via aapt) or an extracted AndroidManifest.xml. The
activity list bounds the coverage estimate of a subsequent exploration run.`,
		RunE: commands.RunAnalyze,
	}

	analyzeCmd.Flags().StringVar(&apkPath, "apk", "", "Path to APK file")
	analyzeCmd.Flags().StringVar(&manifestPath, "manifest", "", "Path to extracted AndroidManifest.xml")
	analyzeCmd.Flags().StringVar(&aaptPath, "aapt-path", "aapt", "Path to the aapt binary")
	analyzeCmd.Flags().StringVar(&outputDir, "output", "./appmapper_output", "Directory for analysis artifacts")

	viper.BindPFlag("apk_path", analyzeCmd.Flags().Lookup("apk"))
	viper.BindPFlag("manifest_path", analyzeCmd.Flags().Lookup("manifest"))
	viper.BindPFlag("aapt_path", analyzeCmd.Flags().Lookup("aapt-path"))
	viper.BindPFlag("output_dir", analyzeCmd.Flags().Lookup("output"))

	rootCmd.AddCommand(analyzeCmd)

	// Device command
	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "Inspect and maintain a connected device",
		Long: `One-off device maintenance against a connected device or emulator: uninstall
a package, force-stop a running app, dump recent logcat output, or print device
properties.`,
		RunE: commands.RunDevice,
	}

	deviceCmd.Flags().StringVar(&deviceSerial, "serial", "", "ADB device serial (required)")
	deviceCmd.Flags().StringVar(&adbPath, "adb-path", "adb", "Path to the adb binary")
	deviceCmd.Flags().DurationVar(&commandTimeout, "command-timeout", 30*time.Second, "Timeout per device command")
	deviceCmd.Flags().String("uninstall", "", "Uninstall the given package")
	deviceCmd.Flags().String("stop-app", "", "Force-stop the given package")
	deviceCmd.Flags().Bool("logs", false, "Print recent logcat output")
	deviceCmd.Flags().Bool("info", false, "Print device properties")

	deviceCmd.MarkFlagRequired("serial")

	viper.BindPFlag("device.serial", deviceCmd.Flags().Lookup("serial"))
	viper.BindPFlag("device.adb_path", deviceCmd.Flags().Lookup("adb-path"))
	viper.BindPFlag("device.command_timeout", deviceCmd.Flags().Lookup("command-timeout"))
	viper.BindPFlag("device.uninstall", deviceCmd.Flags().Lookup("uninstall"))
	viper.BindPFlag("device.stop_app", deviceCmd.Flags().Lookup("stop-app"))
	viper.BindPFlag("device.logs", deviceCmd.Flags().Lookup("logs"))
	viper.BindPFlag("device.info", deviceCmd.Flags().Lookup("info"))

	rootCmd.AddCommand(deviceCmd)

	// Logs command
	logsCmd := &cobra.Command{
		Use:   "logs",
		Short: "Manage and analyze run logs",
		Long: `Rotate, clean up, and analyze AppMapper log files. Analysis counts discovered
screens, observed transitions, recoveries, and degraded runs across all retained
log files.`,
		RunE: commands.RunLogs,
	}

	logsCmd.Flags().Bool("rotate", false, "Rotate oversized log files")
	logsCmd.Flags().Bool("cleanup", false, "Remove log files beyond the retention limit")
	logsCmd.Flags().Bool("analyze", false, "Analyze retained logs and print a summary")
	logsCmd.Flags().Bool("stats", false, "Print log file statistics")

	viper.BindPFlag("logs.rotate", logsCmd.Flags().Lookup("rotate"))
	viper.BindPFlag("logs.cleanup", logsCmd.Flags().Lookup("cleanup"))
	viper.BindPFlag("logs.analyze", logsCmd.Flags().Lookup("analyze"))
	viper.BindPFlag("logs.stats", logsCmd.Flags().Lookup("stats"))

	rootCmd.AddCommand(logsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
