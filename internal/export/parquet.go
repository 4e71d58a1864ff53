// Package export writes local order history and sync activity to parquet
// files for offline analysis, optionally uploading them to S3.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/writer"

	"github.com/bitesync/bitesync/internal/models"
	"github.com/bitesync/bitesync/internal/store"
)

type orderRecord struct {
	ID            string  `parquet:"name=id,type=BYTE_ARRAY,convertedtype=UTF8"`
	CustomerName  string  `parquet:"name=customerName,type=BYTE_ARRAY,convertedtype=UTF8"`
	TotalAmount   float64 `parquet:"name=totalAmount,type=DOUBLE"`
	Status        string  `parquet:"name=status,type=BYTE_ARRAY,convertedtype=UTF8"`
	ItemCount     int32   `parquet:"name=itemCount,type=INT32"`
	CreatedAt     int64   `parquet:"name=createdAt,type=INT64"`
	Synced        bool    `parquet:"name=synced,type=BOOLEAN"`
	SyncAttempts  int32   `parquet:"name=syncAttempts,type=INT32"`
	LastSyncError string  `parquet:"name=lastSyncError,type=BYTE_ARRAY,convertedtype=UTF8"`
}

type syncLogRecord struct {
	ID        int64  `parquet:"name=id,type=INT64"`
	Action    string `parquet:"name=action,type=BYTE_ARRAY,convertedtype=UTF8"`
	Outcome   string `parquet:"name=outcome,type=BYTE_ARRAY,convertedtype=UTF8"`
	Detail    string `parquet:"name=detail,type=BYTE_ARRAY,convertedtype=UTF8"`
	Error     string `parquet:"name=error,type=BYTE_ARRAY,convertedtype=UTF8"`
	CreatedAt int64  `parquet:"name=createdAt,type=INT64"`
}

// Exporter snapshots local state into parquet files under Folder. When an
// Uploader is set, files are also pushed to S3 after writing.
type Exporter struct {
	Store    *store.Store
	Folder   string
	Uploader *S3Uploader // optional
	Log      zerolog.Logger
}

// Run writes orders.parquet and sync_logs.parquet and returns the local
// file paths.
func (e *Exporter) Run(ctx context.Context) ([]string, error) {
	if err := os.MkdirAll(e.Folder, 0o755); err != nil {
		return nil, fmt.Errorf("error creating export folder: %w", err)
	}

	orders, err := e.Store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	logs, err := e.Store.ListSyncLogs(ctx, 10000)
	if err != nil {
		return nil, err
	}

	ordersPath := filepath.Join(e.Folder, "orders.parquet")
	if err := e.writeOrders(ordersPath, orders); err != nil {
		return nil, err
	}
	logsPath := filepath.Join(e.Folder, "sync_logs.parquet")
	if err := e.writeSyncLogs(logsPath, logs); err != nil {
		return nil, err
	}

	paths := []string{ordersPath, logsPath}
	if e.Uploader != nil {
		for _, p := range paths {
			key := filepath.Base(p)
			if err := e.Uploader.UploadFile(ctx, key, p); err != nil {
				return nil, fmt.Errorf("error uploading %s: %w", p, err)
			}
			e.Log.Info().Str("file", p).Str("key", key).Msg("exported file uploaded")
		}
	}
	return paths, nil
}

func (e *Exporter) writeOrders(path string, orders []models.Order) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("error creating parquet file %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(orderRecord), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("error creating parquet writer: %w", err)
	}

	for _, o := range orders {
		rec := orderRecord{
			ID:            o.ID,
			CustomerName:  o.CustomerName,
			TotalAmount:   o.TotalAmount,
			Status:        o.Status,
			ItemCount:     int32(len(o.Items)),
			CreatedAt:     o.CreatedAt.UnixMilli(),
			Synced:        o.Synced,
			SyncAttempts:  int32(o.SyncAttempts),
			LastSyncError: o.LastSyncError,
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("error writing order record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("error finalizing parquet file: %w", err)
	}
	return fw.Close()
}

func (e *Exporter) writeSyncLogs(path string, logs []models.SyncLogEntry) error {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return fmt.Errorf("error creating parquet file %s: %w", path, err)
	}
	pw, err := writer.NewParquetWriter(fw, new(syncLogRecord), 4)
	if err != nil {
		fw.Close()
		return fmt.Errorf("error creating parquet writer: %w", err)
	}

	for _, l := range logs {
		rec := syncLogRecord{
			ID:        l.ID,
			Action:    l.Action,
			Outcome:   l.Outcome,
			Detail:    l.Detail,
			Error:     l.Error,
			CreatedAt: l.CreatedAt.UnixMilli(),
		}
		if err := pw.Write(rec); err != nil {
			pw.WriteStop()
			fw.Close()
			return fmt.Errorf("error writing sync log record: %w", err)
		}
	}
	if err := pw.WriteStop(); err != nil {
		fw.Close()
		return fmt.Errorf("error finalizing parquet file: %w", err)
	}
	return fw.Close()
}
