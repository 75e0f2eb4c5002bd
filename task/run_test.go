package task

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/goplus/jcpptask/builder"
)

// stubBuilder records what the runner hands to it.
type stubBuilder struct {
	opts   builder.Options
	added  map[string][]string
	props  map[string]string
	files  []string
	err    error
	builds int
}

func (s *stubBuilder) AddProperty(name string, values []string) {
	if values == nil {
		return
	}
	s.added[name] = values
	s.props[name] = strings.Join(values, ":")
}

func (s *stubBuilder) Property(name string) (string, bool) {
	v, ok := s.props[name]
	return v, ok
}

func (s *stubBuilder) Properties() map[string]string {
	out := make(map[string]string, len(s.props))
	for k, v := range s.props {
		out[k] = v
	}
	return out
}

func (s *stubBuilder) Build(ctx context.Context) (*builder.Output, error) {
	s.builds++
	if s.err != nil {
		return nil, s.err
	}
	return &builder.Output{Files: s.files, Properties: s.Properties()}, nil
}

type stubFactory struct {
	calls int
	b     *stubBuilder
}

func (f *stubFactory) factory(opts builder.Options, logger builder.Logger, exec builder.Executor) (builder.Builder, error) {
	f.calls++
	f.b.opts = opts
	return f.b, nil
}

func newStub(props map[string]string, files []string, err error) *stubFactory {
	if props == nil {
		props = map[string]string{}
	}
	return &stubFactory{b: &stubBuilder{
		added: map[string][]string{},
		props: props,
		files: files,
		err:   err,
	}}
}

// recordLogger keeps formatted messages per level.
type recordLogger struct {
	debug, info []string
}

func (l *recordLogger) Debugf(format string, v ...any) { l.debug = append(l.debug, fmt.Sprintf(format, v...)) }
func (l *recordLogger) Infof(format string, v ...any)  { l.info = append(l.info, fmt.Sprintf(format, v...)) }
func (l *recordLogger) Warnf(format string, v ...any)  {}
func (l *recordLogger) Errorf(format string, v ...any) {}

func TestRunExample(t *testing.T) {
	stub := newStub(
		map[string]string{"platform": "linux-x86_64"},
		[]string{"/out/Example.cpp", "/out/Example.o"},
		nil,
	)
	ns := MapNamespace{}
	r := &Runner{NewBuilder: stub.factory, Namespace: ns}

	bt := New()
	bt.OutputDirectory = "/out"
	bt.ClassOrPackageNames = []string{"com.example.*"}

	res, err := r.Run(context.Background(), bt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if want := []string{"/out/Example.cpp", "/out/Example.o"}; !reflect.DeepEqual(res.Files, want) {
		t.Errorf("Files = %v, want %v", res.Files, want)
	}
	if got, _ := ns.Get("javacpp.platform"); got != "linux-x86_64" {
		t.Errorf("javacpp.platform = %q, want linux-x86_64", got)
	}
	if stub.b.builds != 1 {
		t.Errorf("builds = %d, want 1", stub.b.builds)
	}
	if stub.b.opts.OutputDirectory != "/out" || !reflect.DeepEqual(stub.b.opts.ClassOrPackageNames, []string{"com.example.*"}) {
		t.Errorf("options = %+v", stub.b.opts)
	}
	if stub.b.opts.BuildCommand != nil {
		t.Errorf("BuildCommand = %v, want nil", stub.b.opts.BuildCommand)
	}
}

func TestRunSkip(t *testing.T) {
	stub := newStub(nil, []string{"/x"}, nil)
	ns := MapNamespace{}
	log := &recordLogger{}
	r := &Runner{NewBuilder: stub.factory, Namespace: ns, Logger: log}

	bt := New()
	bt.Skip = true
	bt.IncludePath = []string{"/inc"}
	bt.BuildCommand = []string{"make"}

	res, err := r.Run(context.Background(), bt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !res.Skipped || len(res.Files) != 0 || len(res.Properties) != 0 {
		t.Errorf("Result = %+v, want empty skipped result", res)
	}
	if stub.calls != 0 || stub.b.builds != 0 {
		t.Errorf("factory calls = %d, builds = %d, want 0", stub.calls, stub.b.builds)
	}
	if len(ns) != 0 {
		t.Errorf("namespace = %v, want empty", ns)
	}
	if len(log.info) != 1 || log.info[0] != "Skipping execution of JavaCPP Builder" {
		t.Errorf("info log = %v", log.info)
	}
}

func TestRunCategories(t *testing.T) {
	for _, c := range Categories {
		t.Run(string(c), func(t *testing.T) {
			// absent
			stub := newStub(nil, nil, nil)
			r := &Runner{NewBuilder: stub.factory}
			if _, err := r.Run(context.Background(), New()); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if _, ok := stub.b.added[c.Property()]; ok {
				t.Errorf("%s registered while absent", c.Property())
			}

			// present and empty
			stub = newStub(nil, nil, nil)
			r = &Runner{NewBuilder: stub.factory}
			bt := New()
			bt.SetPaths(c, []string{})
			if _, err := r.Run(context.Background(), bt); err != nil {
				t.Fatalf("Run: %v", err)
			}
			got, ok := stub.b.added[c.Property()]
			if !ok || got == nil || len(got) != 0 {
				t.Errorf("%s = %#v (registered %v), want empty list", c.Property(), got, ok)
			}

			// present
			stub = newStub(nil, nil, nil)
			r = &Runner{NewBuilder: stub.factory}
			bt = New()
			bt.SetPaths(c, []string{"/a", "/b"})
			if _, err := r.Run(context.Background(), bt); err != nil {
				t.Fatalf("Run: %v", err)
			}
			if got := stub.b.added[c.Property()]; !reflect.DeepEqual(got, []string{"/a", "/b"}) {
				t.Errorf("%s = %v, want [/a /b]", c.Property(), got)
			}
			if len(stub.b.added) != 1 {
				t.Errorf("registered %v, want only %s", stub.b.added, c.Property())
			}
		})
	}
}

func TestRunPublishesAllProperties(t *testing.T) {
	props := map[string]string{
		"platform":           "macosx-arm64",
		"platform.extension": "-gpu",
		"platform.compiler":  "clang++",
		"platform.root":      "",
	}
	stub := newStub(props, nil, nil)
	ns := MapNamespace{}
	log := &recordLogger{}
	r := &Runner{
		NewBuilder: stub.factory,
		Namespace:  ns,
		Prefix:     "native",
		Logger:     log,
		Detect:     func() string { return "linux-x86_64" },
	}
	res, err := r.Run(context.Background(), New())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(ns) != len(props) {
		t.Errorf("namespace has %d keys, want %d", len(ns), len(props))
	}
	for k, v := range res.Properties {
		if got, ok := ns.Get("native." + k); !ok || got != v {
			t.Errorf("native.%s = %q (set=%v), want %q", k, got, ok, v)
		}
	}

	wantInfo := []string{
		`Detected platform "linux-x86_64"`,
		`Building platform "macosx-arm64" with extension "-gpu"`,
	}
	if !reflect.DeepEqual(log.info, wantInfo) {
		t.Errorf("info log = %q, want %q", log.info, wantInfo)
	}
	if len(log.debug) != 1 || !strings.HasPrefix(log.debug[0], "outputFiles:") {
		t.Errorf("debug log = %q", log.debug)
	}
}

func TestRunFailure(t *testing.T) {
	boom := errors.New("parse failure")
	stub := newStub(map[string]string{"platform": "linux-x86_64"}, nil, boom)
	ns := MapNamespace{}
	r := &Runner{NewBuilder: stub.factory, Namespace: ns}

	res, err := r.Run(context.Background(), New())
	if err != boom {
		t.Errorf("Run error = %v, want the builder error unchanged", err)
	}
	if res != nil {
		t.Errorf("Result = %+v, want nil", res)
	}
	if len(ns) != 0 {
		t.Errorf("namespace = %v, want no writes", ns)
	}
}

func TestRunFactoryFailure(t *testing.T) {
	boom := errors.New("bad property file")
	r := &Runner{
		NewBuilder: func(builder.Options, builder.Logger, builder.Executor) (builder.Builder, error) {
			return nil, boom
		},
		Namespace: MapNamespace{},
	}
	if _, err := r.Run(context.Background(), New()); err != boom {
		t.Errorf("Run error = %v, want %v", err, boom)
	}
}

func TestRunNilOutput(t *testing.T) {
	b := &nilOutputBuilder{stubBuilder{
		added: map[string][]string{},
		props: map[string]string{"platform": "linux-arm64"},
	}}
	ns := MapNamespace{}
	r := &Runner{
		NewBuilder: func(builder.Options, builder.Logger, builder.Executor) (builder.Builder, error) {
			return b, nil
		},
		Namespace: ns,
	}
	res, err := r.Run(context.Background(), New())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("Files = %v, want none", res.Files)
	}
	if got, _ := ns.Get("javacpp.platform"); got != "linux-arm64" {
		t.Errorf("javacpp.platform = %q, want the builder table value", got)
	}
}

func TestRunWithoutFactory(t *testing.T) {
	r := &Runner{Namespace: MapNamespace{}}
	if _, err := r.Run(context.Background(), New()); err == nil {
		t.Error("Run without NewBuilder succeeded, want error")
	}
}

// nilOutputBuilder succeeds without reporting an Output.
type nilOutputBuilder struct {
	stubBuilder
}

func (b *nilOutputBuilder) Build(ctx context.Context) (*builder.Output, error) {
	b.builds++
	return nil, nil
}

func TestRunSourceDirs(t *testing.T) {
	stub := newStub(nil, nil, nil)
	r := &Runner{NewBuilder: stub.factory}

	bt := New()
	bt.TargetDirectory = []string{"gen/java"}
	res, err := r.Run(context.Background(), bt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.SourceDirs != nil {
		t.Errorf("SourceDirs = %v without build command", res.SourceDirs)
	}

	bt.BuildCommand = []string{"bash", "gen.sh"}
	res, err = r.Run(context.Background(), bt)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !reflect.DeepEqual(res.SourceDirs, []string{"gen/java"}) {
		t.Errorf("SourceDirs = %v", res.SourceDirs)
	}
}

func TestOptionsCopies(t *testing.T) {
	bt := New()
	bt.ClassPath = []string{"a"}
	bt.PropertyKeysAndValues = map[string]string{"k": "v"}
	opts := bt.Options()
	bt.ClassPath[0] = "changed"
	bt.PropertyKeysAndValues["k"] = "changed"
	if opts.ClassPath[0] != "a" || opts.Properties["k"] != "v" {
		t.Errorf("Options shares storage with the task: %+v", opts)
	}
	if opts.CompilerOptions != nil || opts.Environment != nil {
		t.Errorf("absent options must stay nil: %+v", opts)
	}
	if !opts.Generate || !opts.Compile || !opts.DeleteJniFiles {
		t.Errorf("defaults lost: %+v", opts)
	}
}

// TestRunPropertyMergeOrder drives the JavaCPP builder with the same key in
// all three property sources.
func TestRunPropertyMergeOrder(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "custom.properties")
	if err := os.WriteFile(file, []byte("platform.compiler=file-cc\nplatform.linkpath=/file\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	exec := &noopExecutor{}
	ns := MapNamespace{}
	r := &Runner{
		NewBuilder: builder.JavaCPPFactory("", nil),
		Namespace:  ns,
		Executor:   exec,
	}
	bt := New()
	bt.Properties = "linux-x86_64" // platform.compiler=g++
	bt.PropertyFile = file
	bt.PropertyKeysAndValues = map[string]string{"platform.compiler": "explicit-cc"}
	bt.LinkPath = []string{"/typed"}
	bt.IncludePath = []string{}

	if _, err := r.Run(context.Background(), bt); err != nil {
		t.Fatalf("Run: %v", err)
	}
	for key, want := range map[string]string{
		"javacpp.platform":          "linux-x86_64",
		"javacpp.platform.compiler": "explicit-cc",
		"javacpp.platform.linkpath": "/file:/typed",
	} {
		if got, _ := ns.Get(key); got != want {
			t.Errorf("%s = %q, want %q", key, got, want)
		}
	}
	if got, ok := ns.Get("javacpp.platform.includepath"); !ok || got != "" {
		t.Errorf("javacpp.platform.includepath = %q (set=%v), want cleared", got, ok)
	}
	if exec.calls != 1 {
		t.Errorf("executor calls = %d, want 1", exec.calls)
	}
}

type noopExecutor struct{ calls int }

func (e *noopExecutor) Execute(context.Context, builder.Command) error {
	e.calls++
	return nil
}
