package main

import (
	"testing"

	"clapper/internal/config"
)

func TestParseCameraFlags(t *testing.T) {
	cameras, err := parseCameraFlags([]string{"front=/dev/video0", "wrist = /dev/video2"})
	if err != nil {
		t.Fatalf("parseCameraFlags: %v", err)
	}
	want := []config.Camera{
		{Name: "front", Device: "/dev/video0"},
		{Name: "wrist", Device: "/dev/video2"},
	}
	if len(cameras) != len(want) {
		t.Fatalf("got %d cameras", len(cameras))
	}
	for i := range want {
		if cameras[i] != want[i] {
			t.Fatalf("camera %d = %+v, want %+v", i, cameras[i], want[i])
		}
	}
}

func TestParseCameraFlagsRejectsMalformed(t *testing.T) {
	for _, value := range []string{"front", "=dev", "front=", "="} {
		if _, err := parseCameraFlags([]string{value}); err == nil {
			t.Errorf("parseCameraFlags(%q) succeeded", value)
		}
	}
}

func TestRecordRejectsInvalidCameraFlag(t *testing.T) {
	configPath := writeTestConfig(t, testConfig(t))
	_, _, err := runCLI(t, []string{"record", "--camera", "nodevice"}, configPath)
	if err == nil {
		t.Fatal("record accepted malformed --camera value")
	}
}

func TestRecordRejectsDuplicateDevices(t *testing.T) {
	configPath := writeTestConfig(t, testConfig(t))
	_, _, err := runCLI(t, []string{
		"record",
		"--camera", "front=/dev/video0",
		"--camera", "wrist=/dev/video0",
	}, configPath)
	if err == nil {
		t.Fatal("record accepted two cameras on the same device")
	}
}

func TestRecordRejectsInvalidOverrides(t *testing.T) {
	configPath := writeTestConfig(t, testConfig(t))
	cases := [][]string{
		{"record", "--fps", "0"},
		{"record", "--episodes", "-1"},
		{"record", "--duration", "0"},
	}
	for _, args := range cases {
		if _, _, err := runCLI(t, args, configPath); err == nil {
			t.Errorf("record accepted %v", args[1:])
		}
	}
}
