package logger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go-crm-core/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap/zapcore"
)

// LogEntry holds the data passed from Zap to our worker
type LogEntry struct {
	Level   zapcore.Level
	Message string
	Caller  string
	Time    time.Time
	Fields  map[string]interface{}
}

// LogSink persists a batch of entries.
type LogSink interface {
	WriteLogs(ctx context.Context, entries []LogEntry) error
}

// DBLogWriter handles the async writing
type DBLogWriter struct {
	sink    LogSink
	logChan chan LogEntry
	env     string
	done    chan struct{}
	once    sync.Once
}

const batchSize = 50

func NewDBLogWriter(sink LogSink, cfg *config.Config) *DBLogWriter {
	writer := &DBLogWriter{
		sink:    sink,
		logChan: make(chan LogEntry, 1000),
		env:     cfg.Environment,
		done:    make(chan struct{}),
	}
	go writer.processLogs()
	return writer
}

// AddLog never blocks the caller; a full buffer drops the entry.
func (w *DBLogWriter) AddLog(entry LogEntry) {
	select {
	case w.logChan <- entry:
	default:
		fmt.Println("DB Log Channel Full! Dropping log:", entry.Message)
	}
}

// Close flushes pending entries and stops the worker.
func (w *DBLogWriter) Close() {
	w.once.Do(func() {
		close(w.logChan)
		<-w.done
	})
}

func (w *DBLogWriter) processLogs() {
	defer close(w.done)
	batch := make([]LogEntry, 0, batchSize)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.sink.WriteLogs(ctx, batch); err != nil {
			fmt.Println("DB Log flush failed:", err)
		}
		cancel()
		batch = batch[:0]
	}

	for {
		select {
		case entry, ok := <-w.logChan:
			if !ok {
				flush()
				return
			}
			if entry.Fields == nil {
				entry.Fields = map[string]interface{}{}
			}
			entry.Fields["environment"] = w.env
			batch = append(batch, entry)
			if len(batch) >= batchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		}
	}
}

type mongoSink struct {
	coll *mongo.Collection
}

// NewMongoSink writes entries into the logs collection.
func NewMongoSink(db *mongo.Database) LogSink {
	return &mongoSink{coll: db.Collection("logs")}
}

type logDocument struct {
	Level        string                 `bson:"level"`
	LogLevelId   int                    `bson:"log_level_id"`
	Message      string                 `bson:"message"`
	Caller       string                 `bson:"caller,omitempty"`
	Fields       map[string]interface{} `bson:"fields,omitempty"`
	CreatedOnUtc time.Time              `bson:"created_on_utc"`
}

func (s *mongoSink) WriteLogs(ctx context.Context, entries []LogEntry) error {
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		docs = append(docs, logDocument{
			Level:        e.Level.String(),
			LogLevelId:   mapLevelToInt(e.Level),
			Message:      e.Message,
			Caller:       e.Caller,
			Fields:       e.Fields,
			CreatedOnUtc: e.Time.UTC(),
		})
	}
	_, err := s.coll.InsertMany(ctx, docs)
	return err
}

func mapLevelToInt(l zapcore.Level) int {
	switch l {
	case zapcore.DebugLevel:
		return 10
	case zapcore.InfoLevel:
		return 20
	case zapcore.WarnLevel:
		return 30
	case zapcore.ErrorLevel:
		return 40
	case zapcore.FatalLevel:
		return 50
	default:
		return 20
	}
}
