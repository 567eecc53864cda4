// Package docker resolves which container publishes a host port.
//
// When a conflicting listener turns out to be docker-proxy, the pid
// alone tells the operator nothing useful; the container name and its
// compose project directory do. Lookups are best effort and bounded:
// any failure just means no enrichment.
package docker

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const commandTimeout = 3 * time.Second

// Container identifies a running container that publishes a port.
type Container struct {
	ID         string
	Name       string
	Project    string // compose project, if labelled
	WorkingDir string // compose working dir or first mount source
}

var ErrNoContainer = errors.New("no container publishes this port")

// Available reports whether the docker CLI can be invoked at all.
func Available() bool {
	_, err := exec.LookPath("docker")
	return err == nil
}

// FindByPort returns the running container that publishes port on the
// host, or ErrNoContainer.
func FindByPort(ctx context.Context, port int) (*Container, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	ids, err := containerIDs(ctx)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		out, err := exec.CommandContext(ctx, "docker", "inspect", id).Output()
		if err != nil {
			continue
		}
		var results []inspectResult
		if err := json.Unmarshal(out, &results); err != nil {
			continue
		}
		for _, result := range results {
			if container, ok := containerForPort(result, port); ok {
				return container, nil
			}
		}
	}
	return nil, ErrNoContainer
}

func containerIDs(ctx context.Context) ([]string, error) {
	out, err := exec.CommandContext(ctx, "docker", "ps", "-q").Output()
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, nil
}

type inspectResult struct {
	ID     string `json:"Id"`
	Name   string `json:"Name"`
	Config struct {
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
	Mounts []struct {
		Source string `json:"Source"`
	} `json:"Mounts"`
	NetworkSettings struct {
		Ports map[string][]struct {
			HostPort string `json:"HostPort"`
		} `json:"Ports"`
	} `json:"NetworkSettings"`
}

// containerForPort checks one inspect result against the host port.
func containerForPort(result inspectResult, port int) (*Container, bool) {
	want := strconv.Itoa(port)
	matched := false
	for _, bindings := range result.NetworkSettings.Ports {
		for _, binding := range bindings {
			if binding.HostPort == want {
				matched = true
			}
		}
	}
	if !matched {
		return nil, false
	}
	container := &Container{
		ID:      result.ID,
		Name:    strings.TrimPrefix(result.Name, "/"),
		Project: result.Config.Labels["com.docker.compose.project"],
	}
	if dir := result.Config.Labels["com.docker.compose.project.working_dir"]; dir != "" {
		container.WorkingDir = dir
	} else if len(result.Mounts) > 0 {
		container.WorkingDir = result.Mounts[0].Source
	}
	return container, true
}
