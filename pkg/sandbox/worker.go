package sandbox

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/sourcegraph/jsonrpc2"

	"github.com/sandcalc/sandcalc/pkg/logutil"
	"github.com/sandcalc/sandcalc/pkg/prog"
)

const calculateMethod = "calculate"

var (
	errMethodNotFound = &jsonrpc2.Error{
		Code: jsonrpc2.CodeMethodNotFound, Message: "method not found"}
	errInvalidParams = &jsonrpc2.Error{
		Code: jsonrpc2.CodeInvalidParams, Message: "invalid params"}
)

// Program is the worker subprogram.
type Program struct {
	run         bool
	memoryLimit int64
}

func (p *Program) RegisterFlags(fs *prog.FlagSet) {
	fs.BoolVar(&p.run, "worker", false,
		"[internal flag] Run a sandbox worker instead of the calculator")
	fs.Int64Var(&p.memoryLimit, "worker-memory", DefaultMemoryLimit,
		"[internal flag] Memory limit of the sandbox worker in bytes")
}

func (p *Program) Run(fds [3]*os.File, args []string) error {
	if !p.run {
		return prog.NextProgram()
	}
	if len(args) > 0 {
		return prog.BadUsage("arguments are not allowed with -worker")
	}
	// The parent keeps the tail of stderr for crash reports.
	logutil.SetOutput(fds[2])
	logger.Println("pid is", os.Getpid())
	if err := limitMemory(p.memoryLimit); err != nil {
		logger.Println("failed to limit memory:", err)
		return err
	}
	Serve(context.Background(), fds[0], fds[1])
	return nil
}

// Serve answers calculate requests read from r, writing responses to w,
// until r is closed.
func Serve(ctx context.Context, r io.ReadCloser, w io.WriteCloser) {
	conn := jsonrpc2.NewConn(ctx,
		jsonrpc2.NewBufferedStream(pipe{r, w}, jsonrpc2.VSCodeObjectCodec{}),
		jsonrpc2.HandlerWithError(handle))
	<-conn.DisconnectNotify()
	logger.Println("parent disconnected")
}

func handle(ctx context.Context, _ *jsonrpc2.Conn, req *jsonrpc2.Request) (any, error) {
	if req.Method != calculateMethod {
		return nil, errMethodNotFound
	}
	var wreq wireRequest
	if req.Params == nil || json.Unmarshal(*req.Params, &wreq) != nil {
		return nil, errInvalidParams
	}
	r, err := wreq.decode()
	if err != nil {
		logger.Println("bad request:", err)
		return nil, errInvalidParams
	}
	logger.Printf("request %s: %q", r.ID, r.Expr)
	resp, err := calculate(ctx, r)
	if err != nil {
		logger.Printf("request %s failed: %v", r.ID, err)
	}
	return encodeResponse(r.ID, resp, err), nil
}

// Joins the two ends of a connection into an io.ReadWriteCloser.
type pipe struct {
	r io.ReadCloser
	w io.WriteCloser
}

func (p pipe) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p pipe) Write(b []byte) (int, error) { return p.w.Write(b) }

func (p pipe) Close() error {
	if err := p.w.Close(); err != nil {
		p.r.Close()
		return err
	}
	return p.r.Close()
}
