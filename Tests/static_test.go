/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: static_test.go
Description: Tests for the static APK analyzer. Covers manifest parsing of
activities and permissions, aapt failure handling, and input validation.
*/

package appmapper_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kleascm/appmapper/pkg/static"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.example.demo">
    <uses-permission android:name="android.permission.INTERNET"/>
    <uses-permission android:name="android.permission.CAMERA"/>
    <application android:label="Demo">
        <activity android:name="com.example.demo.MainActivity">
            <intent-filter>
                <action android:name="android.intent.action.MAIN"/>
                <category android:name="android.intent.category.LAUNCHER"/>
            </intent-filter>
        </activity>
        <activity android:name="com.example.demo.SettingsActivity"/>
        <activity android:name=".DetailActivity"/>
    </application>
</manifest>`

func TestParseManifest(t *testing.T) {
	runTest(t, "TestParseManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "AndroidManifest.xml")
		require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0644))

		analyzer := static.NewAnalyzer()
		meta, err := analyzer.ParseManifest(path)
		require.NoError(t, err)

		assert.Equal(t, "com.example.demo", meta.PackageName)
		assert.Equal(t, []string{
			"com.example.demo.MainActivity",
			"com.example.demo.SettingsActivity",
			".DetailActivity",
		}, meta.Activities)
		assert.Equal(t, []string{
			"android.permission.INTERNET",
			"android.permission.CAMERA",
		}, meta.Permissions)
	})
}

func TestParseManifestErrors(t *testing.T) {
	runTest(t, "TestParseManifestErrors", func(t *testing.T) {
		analyzer := static.NewAnalyzer()

		// Missing file
		_, err := analyzer.ParseManifest(filepath.Join(t.TempDir(), "missing.xml"))
		assert.Error(t, err)

		// Malformed XML
		path := filepath.Join(t.TempDir(), "broken.xml")
		require.NoError(t, os.WriteFile(path, []byte("<manifest><unclosed"), 0644))
		_, err = analyzer.ParseManifest(path)
		assert.Error(t, err)
	})
}

func TestAnalyzeAPKErrors(t *testing.T) {
	runTest(t, "TestAnalyzeAPKErrors", func(t *testing.T) {
		analyzer := static.NewAnalyzer()

		// Empty path is rejected before invoking aapt
		_, err := analyzer.AnalyzeAPK("")
		assert.Error(t, err)

		// Missing aapt binary surfaces as an error, not a panic
		analyzer.AAPTPath = "/nonexistent/aapt"
		_, err = analyzer.AnalyzeAPK("whatever.apk")
		assert.Error(t, err)
	})
}
