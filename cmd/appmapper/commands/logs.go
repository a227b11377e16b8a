/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logs.go
Description: Logs command implementation. Rotation, retention cleanup, file
statistics, and exploration event analysis over retained AppMapper logs.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/appmapper/pkg/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunLogs executes the requested log management operations
func RunLogs(cmd *cobra.Command, args []string) error {
	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logDir := viper.GetString("log_dir")
	manager := logging.NewLogManager(
		logDir,
		viper.GetInt("log_max_files"),
		viper.GetInt64("log_max_size"),
		viper.GetBool("log_compress"),
	)

	ran := false

	if viper.GetBool("logs.rotate") {
		ran = true
		if err := manager.RotateLogs(); err != nil {
			return fmt.Errorf("rotation failed: %w", err)
		}
		fmt.Println("[*] Log rotation complete.")
	}

	if viper.GetBool("logs.cleanup") {
		ran = true
		if err := manager.CleanupOldLogs(); err != nil {
			return fmt.Errorf("cleanup failed: %w", err)
		}
		fmt.Println("[*] Log cleanup complete.")
	}

	if viper.GetBool("logs.stats") {
		ran = true
		stats, err := manager.GetLogStats()
		if err != nil {
			return fmt.Errorf("stats failed: %w", err)
		}
		fmt.Println("📄 Log File Statistics")
		fmt.Printf("  Files:        %d\n", stats.TotalFiles)
		fmt.Printf("  Total size:   %d bytes\n", stats.TotalSize)
		fmt.Printf("  Compressed:   %d\n", stats.CompressedFiles)
		fmt.Printf("  Uncompressed: %d\n", stats.UncompressedFiles)
	}

	if viper.GetBool("logs.analyze") {
		ran = true
		analyzer := logging.NewLogAnalyzer(logDir)
		analysis, err := analyzer.AnalyzeLogs()
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		fmt.Println(analysis.GetLogSummary())
	}

	if !ran {
		return fmt.Errorf("nothing to do: pass --rotate, --cleanup, --stats, or --analyze")
	}
	return nil
}
