/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: analyzer.go
Description: Static APK metadata analyzer using aapt badging output and
AndroidManifest.xml parsing. Supplies the package name, launcher entry, and the
declared activity list that bounds the exploration coverage estimate and seeds
the degraded fallback.
*/

package static

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// AppMetadata is the statically extracted application description
type AppMetadata struct {
	PackageName      string   `json:"package_name"`
	Version          string   `json:"version,omitempty"`
	Label            string   `json:"label,omitempty"`
	LauncherActivity string   `json:"launcher_activity,omitempty"`
	Activities       []string `json:"activities,omitempty"`
	Permissions      []string `json:"permissions,omitempty"`
}

// Analyzer extracts metadata from APK files and manifests
type Analyzer struct {
	AAPTPath string
}

// NewAnalyzer creates an analyzer using aapt from PATH
func NewAnalyzer() *Analyzer {
	return &Analyzer{AAPTPath: "aapt"}
}

// AnalyzeAPK runs aapt dump badging on the APK and parses package, version,
// label, permissions, and the launchable activity.
func (a *Analyzer) AnalyzeAPK(apkPath string) (*AppMetadata, error) {
	if apkPath == "" {
		return nil, fmt.Errorf("apk path must not be empty")
	}
	cmd := exec.Command(a.AAPTPath, "dump", "badging", apkPath)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("aapt failed: %v", err)
	}

	meta := &AppMetadata{}
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "package: "):
			for _, f := range strings.Fields(line) {
				if strings.HasPrefix(f, "name=") {
					meta.PackageName = strings.Trim(f[5:], "'\"")
				}
				if strings.HasPrefix(f, "versionName=") {
					meta.Version = strings.Trim(f[12:], "'\"")
				}
			}
		case strings.HasPrefix(line, "uses-permission: "):
			perm := strings.TrimPrefix(line, "uses-permission: ")
			perm = strings.TrimPrefix(perm, "name=")
			meta.Permissions = append(meta.Permissions, strings.Trim(perm, "'\""))
		case strings.HasPrefix(line, "launchable-activity: "):
			for _, f := range strings.Fields(line) {
				if strings.HasPrefix(f, "name=") {
					meta.LauncherActivity = strings.Trim(f[5:], "'\"")
				}
			}
		case strings.HasPrefix(line, "application-label:"):
			meta.Label = strings.Trim(strings.TrimPrefix(line, "application-label:"), "'\"")
		}
	}
	if meta.LauncherActivity != "" {
		meta.Activities = append(meta.Activities, meta.LauncherActivity)
	}
	return meta, nil
}

// ParseManifest parses an extracted AndroidManifest.xml and lists the declared
// activities, the full entry-point surface the badging dump omits.
func (a *Analyzer) ParseManifest(manifestPath string) (*AppMetadata, error) {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var manifest struct {
		XMLName     xml.Name `xml:"manifest"`
		Package     string   `xml:"package,attr"`
		Permissions []struct {
			Name string `xml:"name,attr"`
		} `xml:"uses-permission"`
		Activities []struct {
			Name string `xml:"name,attr"`
		} `xml:"application>activity"`
	}
	if err := xml.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("xml unmarshal failed: %v", err)
	}

	meta := &AppMetadata{PackageName: manifest.Package}
	for _, p := range manifest.Permissions {
		meta.Permissions = append(meta.Permissions, p.Name)
	}
	for _, act := range manifest.Activities {
		meta.Activities = append(meta.Activities, act.Name)
	}
	return meta, nil
}
