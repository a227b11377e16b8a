/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyze.go
Description: Analyze command implementation. Runs static analysis on an APK or
an extracted manifest and writes the resulting metadata as a JSON artifact.
*/

package commands

import (
	"fmt"

	"github.com/kleascm/appmapper/pkg/static"
	"github.com/kleascm/appmapper/pkg/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// RunAnalyze executes static analysis of an APK or manifest
func RunAnalyze(cmd *cobra.Command, args []string) error {
	fmt.Println("🔍 AppMapper - Static Analysis")
	fmt.Println("==============================")
	fmt.Println()

	if err := LoadConfig(); err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	apkPath := viper.GetString("apk_path")
	manifestPath := viper.GetString("manifest_path")
	if apkPath == "" && manifestPath == "" {
		return fmt.Errorf("either --apk or --manifest is required")
	}

	analyzer := static.NewAnalyzer()
	if aapt := viper.GetString("aapt_path"); aapt != "" {
		analyzer.AAPTPath = aapt
	}

	var meta *static.AppMetadata
	var err error
	if apkPath != "" {
		meta, err = analyzer.AnalyzeAPK(apkPath)
	} else {
		meta, err = analyzer.ParseManifest(manifestPath)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	store, err := storage.NewLocal(viper.GetString("output_dir"))
	if err != nil {
		return fmt.Errorf("failed to create artifact store: %w", err)
	}
	key := fmt.Sprintf("analysis/%s.json", meta.PackageName)
	if _, err := store.StoreJSON(key, meta, nil); err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}

	fmt.Printf("  Package:    %s\n", meta.PackageName)
	if meta.Version != "" {
		fmt.Printf("  Version:    %s\n", meta.Version)
	}
	if meta.Label != "" {
		fmt.Printf("  Label:      %s\n", meta.Label)
	}
	if meta.LauncherActivity != "" {
		fmt.Printf("  Launcher:   %s\n", meta.LauncherActivity)
	}
	fmt.Printf("  Activities: %d\n", len(meta.Activities))
	for _, a := range meta.Activities {
		fmt.Printf("    - %s\n", a)
	}
	fmt.Printf("  Permissions: %d\n", len(meta.Permissions))
	fmt.Printf("  Result file: %s\n", store.LocalPath(key))
	return nil
}
