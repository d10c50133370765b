package statuscheck

import (
	"context"
	"errors"
	"testing"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(ctx context.Context) error { return f.err }

type fakeBucket struct {
	name string
	err  error
}

func (f fakeBucket) HeadBucket(ctx context.Context) error { return f.err }
func (f fakeBucket) Bucket() string                       { return f.name }

func TestSummaryRedisStates(t *testing.T) {
	c := New(Options{Redis: fakePinger{}})
	if got := c.Summary(context.Background()).Redis; !got.OK {
		t.Errorf("healthy redis reported %+v", got)
	}

	c = New(Options{Redis: fakePinger{err: errors.New("connection refused")}})
	got := c.Summary(context.Background()).Redis
	if got.OK || got.Message != "connection refused" {
		t.Errorf("failing redis reported %+v", got)
	}

	c = New(Options{})
	if got := c.Summary(context.Background()).Redis; got.OK {
		t.Errorf("nil redis reported healthy")
	}
}

func TestSummaryS3States(t *testing.T) {
	c := New(Options{S3: fakeBucket{name: "results"}})
	if got := c.Summary(context.Background()).S3; !got.OK {
		t.Errorf("healthy s3 reported %+v", got)
	}

	c = New(Options{S3: fakeBucket{name: "results", err: errors.New("forbidden")}})
	if got := c.Summary(context.Background()).S3; got.OK {
		t.Errorf("failing s3 reported healthy")
	}

	c = New(Options{})
	got := c.Summary(context.Background()).S3
	if got.OK || got.Message != "Not configured" {
		t.Errorf("missing s3 reported %+v", got)
	}
}

func TestSummaryOKTreatsMissingS3AsHealthy(t *testing.T) {
	s := Summary{
		Redis: Status{OK: true},
		S3:    Status{OK: false, Message: "Not configured"},
		MuPDF: Status{OK: true},
	}
	if !s.OK() {
		t.Errorf("summary without s3 config should be OK")
	}

	s.S3 = Status{OK: false, Message: "forbidden"}
	if s.OK() {
		t.Errorf("summary with failing s3 should not be OK")
	}
}

func TestTrimErrorTruncates(t *testing.T) {
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'x'
	}
	if got := trimError(errors.New(string(long))); len(got) != 120 {
		t.Errorf("trimError length = %d, want 120", len(got))
	}
	if trimError(nil) != "" {
		t.Errorf("trimError(nil) should be empty")
	}
}
