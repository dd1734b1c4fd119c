// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"strings"

	opentracing "github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

// Instrument decorates a store with debug logs and tracing spans.
//
// A nil tracer falls back to the opentracing global tracer, which is a no-op unless registered.
func Instrument(store Store, logger *zap.Logger, tr opentracing.Tracer) Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tr == nil {
		tr = opentracing.GlobalTracer()
	}
	return &instrumentedStore{
		tr:    tr,
		store: store,
		l:     logger.With(zap.String("store", store.String())),
	}
}

type instrumentedStore struct {
	store Store
	tr    opentracing.Tracer
	l     *zap.Logger
}

func (i *instrumentedStore) opName(name string) string {
	return strings.Join([]string{"storage", i.String(), name}, ".")
}

func (i *instrumentedStore) spanFromContext(ctx context.Context, name string) opentracing.Span {
	parent := opentracing.SpanFromContext(ctx)
	var span opentracing.Span
	if parent != nil {
		span = i.tr.StartSpan(name, opentracing.ChildOf(parent.Context()))
	} else {
		span = i.tr.StartSpan(name)
	}
	return span
}

func (i *instrumentedStore) finish(span opentracing.Span, op, key string, err error) {
	if err != nil {
		span.SetTag("error", true)
		i.l.Debug("storage "+op+" failed", zap.String("key", key), zap.Error(err))
	}
	span.Finish()
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (has bool, err error) {
	span := i.spanFromContext(ctx, i.opName("Has"))
	defer func() { i.finish(span, "has", key, err) }()

	has, err = i.store.Has(ctx, key)
	i.l.Debug("storage has", zap.String("key", key), zap.Bool("found", has))
	return has, err
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (rdr io.ReadCloser, err error) {
	span := i.spanFromContext(ctx, i.opName("Get"))
	defer func() { i.finish(span, "get", key, err) }()

	i.l.Debug("storage get", zap.String("key", key))
	return i.store.Get(ctx, key)
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader, noOverWrite bool) (err error) {
	span := i.spanFromContext(ctx, i.opName("Put"))
	defer func() { i.finish(span, "put", key, err) }()

	i.l.Debug("storage put", zap.String("key", key), zap.Bool("noOverWrite", noOverWrite))
	return i.store.Put(ctx, key, rdr, noOverWrite)
}

func (i *instrumentedStore) Walk(ctx context.Context, prefix string, fn func(ObjectInfo) error) (err error) {
	span := i.spanFromContext(ctx, i.opName("Walk"))
	defer func() { i.finish(span, "walk", prefix, err) }()

	i.l.Debug("storage walk", zap.String("prefix", prefix))
	return i.store.Walk(ctx, prefix, fn)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
