package server

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// Client calls a compile service.
type Client struct {
	createSession  *connect.Client[CreateSessionRequest, CreateSessionResponse]
	destroySession *connect.Client[DestroySessionRequest, DestroySessionResponse]
	compile        *connect.Client[CompileRequest, CompileResponse]
	removeFile     *connect.Client[RemoveFileRequest, RemoveFileResponse]
	complete       *connect.Client[CompleteRequest, CompleteResponse]
	describeClass  *connect.Client[DescribeClassRequest, DescribeClassResponse]
}

// NewClient creates a client for the service at baseURL. A baseURL without
// a scheme is taken to be host:port over plain HTTP.
func NewClient(httpClient connect.HTTPClient, baseURL string) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return &Client{
		createSession:  connect.NewClient[CreateSessionRequest, CreateSessionResponse](httpClient, baseURL+CreateSessionProcedure, withJSON()),
		destroySession: connect.NewClient[DestroySessionRequest, DestroySessionResponse](httpClient, baseURL+DestroySessionProcedure, withJSON()),
		compile:        connect.NewClient[CompileRequest, CompileResponse](httpClient, baseURL+CompileProcedure, withJSON()),
		removeFile:     connect.NewClient[RemoveFileRequest, RemoveFileResponse](httpClient, baseURL+RemoveFileProcedure, withJSON()),
		complete:       connect.NewClient[CompleteRequest, CompleteResponse](httpClient, baseURL+CompleteProcedure, withJSON()),
		describeClass:  connect.NewClient[DescribeClassRequest, DescribeClassResponse](httpClient, baseURL+DescribeClassProcedure, withJSON()),
	}
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], req *Req) (*Res, error) {
	resp, err := c.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, err
	}
	return resp.Msg, nil
}

// CreateSession starts a session and returns its id.
func (c *Client) CreateSession(ctx context.Context, name string) (string, error) {
	resp, err := call(ctx, c.createSession, &CreateSessionRequest{Name: name})
	if err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// DestroySession ends a session.
func (c *Client) DestroySession(ctx context.Context, sessionID string) error {
	_, err := call(ctx, c.destroySession, &DestroySessionRequest{SessionID: sessionID})
	return err
}

// Compile compiles one file.
func (c *Client) Compile(ctx context.Context, req *CompileRequest) (*CompileResponse, error) {
	return call(ctx, c.compile, req)
}

// RemoveFile drops a file from a session.
func (c *Client) RemoveFile(ctx context.Context, sessionID, file string) error {
	_, err := call(ctx, c.removeFile, &RemoveFileRequest{SessionID: sessionID, File: file})
	return err
}

// Complete returns completion candidates for prefix.
func (c *Client) Complete(ctx context.Context, sessionID, prefix string) ([]CompletionItem, error) {
	resp, err := call(ctx, c.complete, &CompleteRequest{SessionID: sessionID, Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// DescribeClass describes a class known to a session.
func (c *Client) DescribeClass(ctx context.Context, sessionID, name string) (*DescribeClassResponse, error) {
	return call(ctx, c.describeClass, &DescribeClassRequest{SessionID: sessionID, Name: name})
}
