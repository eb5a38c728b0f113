package session

import (
	"os"
	"runtime"

	"github.com/agentops-ai/agentops-go/pkg/version"
)

// HostEnv describes the machine and process a session runs in.
type HostEnv struct {
	SDK     SDKInfo     `json:"sdk"`
	OS      OSInfo      `json:"os"`
	CPU     CPUInfo     `json:"cpu"`
	Project ProjectInfo `json:"project"`
}

type SDKInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
}

type OSInfo struct {
	OS       string `json:"os"`
	Arch     string `json:"arch"`
	Hostname string `json:"hostname,omitempty"`
}

type CPUInfo struct {
	Count int `json:"count"`
}

type ProjectInfo struct {
	WorkingDir string `json:"working_dir,omitempty"`
	Executable string `json:"executable,omitempty"`
	PID        int    `json:"pid"`
	GitRepo    bool   `json:"git_repo"`
}

// CaptureHostEnv collects host information. Lookups that fail leave their
// field empty.
func CaptureHostEnv() *HostEnv {
	hostname, _ := os.Hostname()
	workingDir, _ := os.Getwd()
	executable, _ := os.Executable()

	return &HostEnv{
		SDK: SDKInfo{
			Version:   version.Version,
			GoVersion: runtime.Version(),
		},
		OS: OSInfo{
			OS:       runtime.GOOS,
			Arch:     runtime.GOARCH,
			Hostname: hostname,
		},
		CPU: CPUInfo{
			Count: runtime.NumCPU(),
		},
		Project: ProjectInfo{
			WorkingDir: workingDir,
			Executable: executable,
			PID:        os.Getpid(),
			GitRepo:    isGitRepo(workingDir),
		},
	}
}
