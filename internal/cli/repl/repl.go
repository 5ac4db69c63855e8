package repl

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"playground/internal/authapi"
	"playground/internal/cli/state"
	"playground/internal/request"

	"github.com/google/shlex"
)

// Session holds REPL state.
type Session struct {
	auth       *authapi.Client
	clients    []*request.Client
	tokens     *state.Store
	prettyJSON bool
	in         *bufio.Reader
	out        *bufio.Writer
}

// New builds a session. clients are the transport instances that "set base"
// and "set timeout" reconfigure.
func New(auth *authapi.Client, clients []*request.Client, tokens *state.Store, prettyJSON bool, in io.Reader, out io.Writer) *Session {
	return &Session{
		auth:       auth,
		clients:    clients,
		tokens:     tokens,
		prettyJSON: prettyJSON,
		in:         bufio.NewReader(in),
		out:        bufio.NewWriter(out),
	}
}

// Run reads commands until exit or end of input.
func (s *Session) Run(ctx context.Context) {
	for {
		_, _ = s.out.WriteString("auth> ")
		_ = s.out.Flush()
		line, err := s.in.ReadString('\n')
		line = strings.TrimSpace(line)
		if line != "" {
			if quit := s.Execute(ctx, line); quit {
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				s.printLine("read input failed: %v", err)
			}
			return
		}
	}
}

// Execute runs a single command line and reports whether the session should end.
func (s *Session) Execute(ctx context.Context, line string) bool {
	tokens, err := shlex.Split(line)
	if err != nil {
		s.printLine("error: parse command failed: %v", err)
		return false
	}
	if len(tokens) == 0 {
		return false
	}
	args := tokens[1:]
	switch tokens[0] {
	case "exit", "quit":
		s.printLine("bye")
		return true
	case "help":
		s.printHelp()
	case "set":
		s.handleSet(args)
	case "show":
		s.handleShow(args)
	case "login":
		err = s.handleLogin(ctx, args)
	case "refresh":
		err = s.handleRefresh(ctx)
	case "logout":
		err = s.handleLogout(ctx)
	case "codes":
		err = s.handleCodes(ctx)
	default:
		err = fmt.Errorf("unknown command: %s", tokens[0])
	}
	if err != nil {
		s.printLine("error: %v", err)
	}
	return false
}

func (s *Session) handleLogin(ctx context.Context, args []string) error {
	params, err := parseParams(args)
	if err != nil {
		return err
	}
	if params["username"] == "" {
		if params["username"], err = s.promptValue("username"); err != nil {
			return err
		}
	}
	if params["password"] == "" {
		if params["password"], err = s.promptValue("password"); err != nil {
			return err
		}
	}
	result, err := s.auth.Login(ctx, authapi.LoginParams{
		Username: params["username"],
		Password: params["password"],
	})
	if err != nil {
		return err
	}
	if err := s.tokens.Update(result.AccessToken, params["username"]); err != nil {
		s.printLine("save token failed: %v", err)
	}
	s.printLine("login ok, token: %s", maskToken(result.AccessToken))
	return nil
}

func (s *Session) handleRefresh(ctx context.Context) error {
	result, err := s.auth.RefreshToken(ctx)
	if result.Status != 0 {
		s.printLine("HTTP %d", result.Status)
	}
	if err != nil {
		return err
	}
	token := strings.TrimSpace(result.Data)
	if token == "" {
		return fmt.Errorf("refresh returned an empty token")
	}
	if err := s.tokens.Update(token, ""); err != nil {
		s.printLine("save token failed: %v", err)
	}
	s.printLine("token refreshed: %s", maskToken(token))
	return nil
}

func (s *Session) handleLogout(ctx context.Context) error {
	resp, err := s.auth.Logout(ctx)
	if resp != nil {
		s.renderResponse(resp)
	}
	if clearErr := s.tokens.Clear(); clearErr != nil {
		s.printLine("clear token failed: %v", clearErr)
	}
	return err
}

func (s *Session) handleCodes(ctx context.Context) error {
	codes, err := s.auth.GetAccessCodes(ctx)
	if err != nil {
		return err
	}
	if len(codes) == 0 {
		s.printLine("no access codes granted")
		return nil
	}
	if s.prettyJSON {
		formatted, _ := json.MarshalIndent(codes, "", "  ")
		s.printLine("%s", string(formatted))
		return nil
	}
	s.printLine("%s", strings.Join(codes, "\n"))
	return nil
}

func (s *Session) handleSet(args []string) {
	if len(args) == 0 {
		s.printLine("usage: set base|timeout|token")
		return
	}
	switch args[0] {
	case "base":
		if len(args) < 2 {
			s.printLine("usage: set base http://localhost:8000")
			return
		}
		for _, client := range s.clients {
			if client.BaseURL() != "" {
				client.SetBaseURL(args[1])
			}
		}
		s.printLine("base set to %s", args[1])
	case "timeout":
		if len(args) < 2 {
			s.printLine("usage: set timeout 10s")
			return
		}
		dur, err := time.ParseDuration(args[1])
		if err != nil || dur <= 0 {
			s.printLine("invalid duration: %s", args[1])
			return
		}
		for _, client := range s.clients {
			client.SetTimeout(dur)
		}
		s.printLine("timeout set to %s", dur)
	case "token":
		if len(args) < 2 {
			s.printLine("usage: set token <access_token>")
			return
		}
		if err := s.tokens.Update(args[1], ""); err != nil {
			s.printLine("save token failed: %v", err)
			return
		}
		s.printLine("token updated")
	default:
		s.printLine("unknown set command")
	}
}

func (s *Session) handleShow(args []string) {
	if len(args) == 0 {
		s.printLine("usage: show token|config")
		return
	}
	switch args[0] {
	case "token":
		snapshot := s.tokens.Snapshot()
		if snapshot.AccessToken == "" {
			s.printLine("token: <empty>")
			return
		}
		s.printLine("token: %s", maskToken(snapshot.AccessToken))
		if snapshot.Username != "" {
			s.printLine("user: %s", snapshot.Username)
		}
	case "config":
		for _, client := range s.clients {
			if base := client.BaseURL(); base != "" {
				s.printLine("baseURL: %s", base)
				break
			}
		}
		s.printLine("tokenStatePath: %s", s.tokens.Path())
	default:
		s.printLine("usage: show token|config")
	}
}

func parseParams(args []string) (map[string]string, error) {
	params := make(map[string]string, len(args))
	for _, arg := range args {
		parts := strings.SplitN(arg, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid param: %s", arg)
		}
		params[strings.ToLower(parts[0])] = parts[1]
	}
	return params, nil
}

func (s *Session) promptValue(prompt string) (string, error) {
	s.printLine("%s:", prompt)
	line, err := s.in.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return "", fmt.Errorf("read input failed: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (s *Session) renderResponse(resp *request.Response) {
	s.printLine("HTTP %d (%s)", resp.StatusCode, resp.Duration)
	if len(resp.Body) == 0 {
		return
	}
	if s.prettyJSON {
		var raw interface{}
		if err := json.Unmarshal(resp.Body, &raw); err == nil {
			formatted, _ := json.MarshalIndent(raw, "", "  ")
			s.printLine("%s", string(formatted))
			return
		}
	}
	s.printLine("%s", string(resp.Body))
}

func maskToken(token string) string {
	if len(token) > 12 {
		return token[:6] + "..." + token[len(token)-4:]
	}
	return token
}

func (s *Session) printHelp() {
	s.printLine("commands: login [username=.. password=..] | refresh | logout | codes")
	s.printLine("system:   help | exit | set base|timeout|token | show token|config")
	s.printLine("example:  login username=vben password=123456")
}

func (s *Session) printLine(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(s.out, format+"\n", args...)
	_ = s.out.Flush()
}
