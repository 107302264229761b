package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nijaru/yt-blog/downloader"
	"github.com/nijaru/yt-blog/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloader struct {
	err     error
	noAudio bool
}

func (f *fakeDownloader) Download(ctx context.Context, url, dir string) (*downloader.Audio, error) {
	if f.err != nil {
		return nil, f.err
	}
	path := filepath.Join(dir, "audio.mp3")
	if !f.noAudio {
		if err := os.WriteFile(path, []byte("ID3"+url), 0644); err != nil {
			return nil, err
		}
	}
	return &downloader.Audio{Path: path, MIMEType: downloader.AudioMIME}, nil
}

type memoryRepo struct {
	mu    sync.Mutex
	saves []models.Job
	err   error
}

func (r *memoryRepo) Save(_ context.Context, job *models.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, *job)
	return r.err
}

func (r *memoryRepo) Find(context.Context, string) (*models.Job, error) { return nil, nil }
func (r *memoryRepo) Close() error                                       { return nil }

type fakeArchiver struct {
	mu    sync.Mutex
	texts map[string]string
	err   error
}

func (a *fakeArchiver) Archive(_ context.Context, job *models.Job, text string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.texts == nil {
		a.texts = map[string]string{}
	}
	a.texts[job.ID] = text
	return a.err
}

func echoInfer(ctx context.Context, audio *downloader.Audio) (string, error) {
	data, err := os.ReadFile(audio.Path)
	return string(data), err
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "workspace left behind")
}

func TestRunSuccess(t *testing.T) {
	root := t.TempDir()
	repo := &memoryRepo{}
	archiver := &fakeArchiver{}
	p := New(&fakeDownloader{}, repo, archiver, Config{TempDir: root}, nil)

	job, text, err := p.Run(context.Background(), models.KindBlog, "u1", echoInfer)

	require.NoError(t, err)
	assert.Equal(t, "ID3u1", text)
	assert.True(t, job.IsCompleted())
	assert.Equal(t, len(text), job.OutputLength)
	assertEmptyDir(t, root)

	require.Len(t, repo.saves, 2)
	assert.Equal(t, models.StatusProcessing, repo.saves[0].Status)
	assert.Equal(t, models.StatusCompleted, repo.saves[1].Status)
	assert.Equal(t, "ID3u1", archiver.texts[job.ID])
}

func TestRunDownloadFailure(t *testing.T) {
	root := t.TempDir()
	repo := &memoryRepo{}
	archiver := &fakeArchiver{}
	dlErr := &downloader.DownloadError{URL: "bad", Msg: "ERROR: Unsupported URL"}
	p := New(&fakeDownloader{err: dlErr}, repo, archiver, Config{TempDir: root}, nil)

	called := false
	job, _, err := p.Run(context.Background(), models.KindTranscription, "bad", func(context.Context, *downloader.Audio) (string, error) {
		called = true
		return "", nil
	})

	require.Error(t, err)
	assert.True(t, downloader.IsDownloadError(err))
	assert.False(t, called)
	assert.True(t, job.IsFailed())
	assert.Equal(t, "ERROR: Unsupported URL", job.Error)
	assertEmptyDir(t, root)
	assert.Empty(t, archiver.texts)
	require.Len(t, repo.saves, 2)
	assert.Equal(t, models.StatusFailed, repo.saves[1].Status)
}

func TestRunAudioMissing(t *testing.T) {
	root := t.TempDir()
	p := New(&fakeDownloader{noAudio: true}, nil, nil, Config{TempDir: root}, nil)

	_, _, err := p.Run(context.Background(), models.KindBlog, "u", echoInfer)

	assert.ErrorIs(t, err, downloader.ErrAudioMissing)
	assert.False(t, downloader.IsDownloadError(err))
	assertEmptyDir(t, root)
}

func TestRunInferenceFailure(t *testing.T) {
	root := t.TempDir()
	p := New(&fakeDownloader{}, nil, nil, Config{TempDir: root}, nil)

	_, _, err := p.Run(context.Background(), models.KindBlog, "u", func(context.Context, *downloader.Audio) (string, error) {
		return "", errors.New("model overloaded")
	})

	assert.EqualError(t, err, "model overloaded")
	assertEmptyDir(t, root)
}

func TestRunJournalAndArchiveFailuresAreIgnored(t *testing.T) {
	p := New(
		&fakeDownloader{},
		&memoryRepo{err: errors.New("disk full")},
		&fakeArchiver{err: errors.New("bucket gone")},
		Config{TempDir: t.TempDir()},
		nil,
	)

	_, text, err := p.Run(context.Background(), models.KindBlog, "u", echoInfer)
	require.NoError(t, err)
	assert.Equal(t, "ID3u", text)
}

func TestRunProcessTimeout(t *testing.T) {
	root := t.TempDir()
	p := New(&fakeDownloader{}, nil, nil, Config{TempDir: root, ProcessTimeout: 20 * time.Millisecond}, nil)

	_, _, err := p.Run(context.Background(), models.KindBlog, "u", func(ctx context.Context, _ *downloader.Audio) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assertEmptyDir(t, root)
}

func TestRunConcurrentJobsUsePrivateWorkspaces(t *testing.T) {
	root := t.TempDir()
	p := New(&fakeDownloader{}, nil, nil, Config{TempDir: root}, nil)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		dirs = map[string]bool{}
	)
	for i := 0; i < 10; i++ {
		url := filepath.Join("video", string(rune('a'+i)))
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, text, err := p.Run(context.Background(), models.KindTranscription, url, func(ctx context.Context, audio *downloader.Audio) (string, error) {
				mu.Lock()
				dirs[filepath.Dir(audio.Path)] = true
				mu.Unlock()
				return echoInfer(ctx, audio)
			})
			assert.NoError(t, err)
			assert.Equal(t, "ID3"+url, text)
		}()
	}
	wg.Wait()

	assert.Len(t, dirs, 10)
	assertEmptyDir(t, root)
}
