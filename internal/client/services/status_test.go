package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_OneActionAtATime(t *testing.T) {
	var tr Tracker
	assert.Equal(t, StatusIdle, tr.Current())

	done, err := tr.Begin(StatusUploading)
	require.NoError(t, err)
	assert.Equal(t, StatusUploading, tr.Current())

	_, err = tr.Begin(StatusListing)
	require.ErrorIs(t, err, ErrBusy)
	assert.EqualError(t, err, "another action is in progress: uploading")

	done()
	done()
	assert.Equal(t, StatusIdle, tr.Current())

	done2, err := tr.Begin(StatusDeleting)
	require.NoError(t, err)
	done()
	assert.Equal(t, StatusDeleting, tr.Current(), "a stale done must not release a newer action")
	done2()
}

func TestTracker_Concurrent(t *testing.T) {
	var tr Tracker
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	release := make(chan struct{})

	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			done, err := tr.Begin(StatusListing)
			if err != nil {
				return
			}
			mu.Lock()
			admitted++
			mu.Unlock()
			<-release
			done()
		}()
	}

	close(release)
	wg.Wait()
	assert.GreaterOrEqual(t, admitted, 1)
	assert.Equal(t, StatusIdle, tr.Current())
}

func TestStatus_String(t *testing.T) {
	assert.Equal(t, "idle", StatusIdle.String())
	assert.Equal(t, "listing", StatusListing.String())
	assert.Equal(t, "uploading", StatusUploading.String())
	assert.Equal(t, "downloading", StatusDownloading.String())
	assert.Equal(t, "deleting", StatusDeleting.String())
	assert.Equal(t, "unknown", Status(42).String())
}
