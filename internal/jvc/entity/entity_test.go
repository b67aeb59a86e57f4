package entity

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVolumeStartRequest_IsValid(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		req     VolumeStartRequest
		wantErr bool
	}{
		{name: "valid", req: VolumeStartRequest{ReplicaAddresses: []string{"a:1"}, Size: 10, CurrentSize: 10}},
		{name: "no replicas", req: VolumeStartRequest{Size: 10}, wantErr: true},
		{name: "size below current", req: VolumeStartRequest{ReplicaAddresses: []string{"a:1"}, Size: 5, CurrentSize: 10}, wantErr: true},
		{name: "negative current", req: VolumeStartRequest{ReplicaAddresses: []string{"a:1"}, Size: 5, CurrentSize: -1}, wantErr: true},
		{name: "zero size", req: VolumeStartRequest{ReplicaAddresses: []string{"a:1"}}},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.req.IsValid()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSnapshotName(t *testing.T) {
	t.Parallel()

	testcases := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "snap-1"},
		{name: "dots and underscores", input: "backup_2024.01.01"},
		{name: "empty", input: "", wantErr: true},
		{name: "slash", input: "a/b", wantErr: true},
		{name: "space", input: "a b", wantErr: true},
		{name: "max length", input: strings.Repeat("a", MaxSnapshotNameLength)},
		{name: "too long", input: strings.Repeat("a", MaxSnapshotNameLength+1), wantErr: true},
	}

	for _, tc := range testcases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateSnapshotName(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVolumeSnapshotRequest_EmptyLabelKey(t *testing.T) {
	t.Parallel()

	req := &VolumeSnapshotRequest{Name: "snap-1", Labels: map[string]string{"": "v"}}
	assert.Error(t, req.IsValid())
}

func TestReplicaMode(t *testing.T) {
	t.Parallel()

	assert.True(t, ReplicaModeWO.Writable())
	assert.True(t, ReplicaModeRW.Writable())
	assert.False(t, ReplicaModeERR.Writable())
	assert.False(t, ReplicaMode("XX").Valid())

	req := &ControllerReplicaCreateRequest{Address: "a:1"}
	assert.NoError(t, req.IsValid())
	req.Mode = "bogus"
	assert.Error(t, req.IsValid())
}

func TestVolumeState_IsStarted(t *testing.T) {
	t.Parallel()

	assert.False(t, VolumeStateUninitialized.IsStarted())
	assert.False(t, VolumeStateShutdown.IsStarted())
	assert.True(t, VolumeStateStarted.IsStarted())
	assert.True(t, VolumeStateRestoring.IsStarted())
}

func TestVolumeFrontendStartRequest_IsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, (&VolumeFrontendStartRequest{Frontend: FrontendBlockDev}).IsValid())
	assert.NoError(t, (&VolumeFrontendStartRequest{Frontend: FrontendISCSI}).IsValid())
	assert.Error(t, (&VolumeFrontendStartRequest{}).IsValid())
	assert.Error(t, (&VolumeFrontendStartRequest{Frontend: "nvme"}).IsValid())
}
