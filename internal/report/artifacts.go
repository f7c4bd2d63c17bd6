package report

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fortuneatelier/fortune-backend/pkg/config"
)

// Artifacts decides where a rendered report lives after fulfillment.
type Artifacts interface {
	// Store keeps the rendered document (or not) and returns the location recorded on the order.
	Store(ctx context.Context, orderID string, pdf []byte) (string, error)
	// Load returns a previously stored document. ok is false when nothing is stored.
	Load(ctx context.Context, orderID string) (pdf []byte, ok bool, err error)
	// Durable reports whether Store persists anything.
	Durable() bool
}

// NewArtifacts picks the artifact strategy named by configuration.
func NewArtifacts(cfg *config.Config) (Artifacts, error) {
	switch cfg.Reports.Storage {
	case config.ReportsStorageLocal:
		return NewLocalArtifacts(cfg.Reports.Dir), nil
	case config.ReportsStorageOnDemand, "":
		return NewOnDemandArtifacts(cfg.App), nil
	default:
		return nil, fmt.Errorf("unsupported reports storage %q", cfg.Reports.Storage)
	}
}

// OnDemandArtifacts keeps nothing; downloads regenerate the report.
type OnDemandArtifacts struct {
	app config.AppConfig
}

func NewOnDemandArtifacts(app config.AppConfig) *OnDemandArtifacts {
	return &OnDemandArtifacts{app: app}
}

func (a *OnDemandArtifacts) Store(_ context.Context, orderID string, _ []byte) (string, error) {
	return a.app.AbsoluteURL(DownloadPath(orderID)), nil
}

func (a *OnDemandArtifacts) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, nil
}

func (a *OnDemandArtifacts) Durable() bool { return false }

// LocalArtifacts writes reports into a directory that is also served statically.
type LocalArtifacts struct {
	dir string
}

func NewLocalArtifacts(dir string) *LocalArtifacts {
	return &LocalArtifacts{dir: dir}
}

func (a *LocalArtifacts) Dir() string { return a.dir }

func (a *LocalArtifacts) Store(_ context.Context, orderID string, pdf []byte) (string, error) {
	if len(pdf) == 0 {
		return "", errors.New("report: refusing to store an empty document")
	}
	return writeArtifact(a.dir, orderID, pdf)
}

func (a *LocalArtifacts) Load(_ context.Context, orderID string) ([]byte, bool, error) {
	data, err := os.ReadFile(filepath.Join(a.dir, orderID+".pdf"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("report: read stored artifact: %w", err)
	}
	return data, true, nil
}

func (a *LocalArtifacts) Durable() bool { return true }

// DownloadPath is the API route that regenerates a report on request.
func DownloadPath(orderID string) string {
	return "/api/v1/reports/" + orderID
}
