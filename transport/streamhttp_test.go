package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"github.com/promptforge/promptmcp/protocol"
)

func TestStreamableHTTP_MCP(t *testing.T) {
	s := NewStreamableHTTP("127.0.0.1:0")
	ts := httptest.NewServer(s.routes(echoHandler()))
	defer ts.Close()

	t.Run("dispatches a request and flushes the response", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
		defer resp.Body.Close()

		var out protocol.Response
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if string(out.ID) != "1" || out.Result != "tools/list" {
			t.Errorf("response = %+v, want echoed request", out)
		}
	})

	t.Run("malformed body yields a parse error", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/mcp", `{broken`)
		defer resp.Body.Close()

		var out protocol.Response
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if out.Error == nil || out.Error.Code != protocol.CodeParseError {
			t.Errorf("error = %+v, want parse error", out.Error)
		}
	})

	t.Run("only POST is allowed", func(t *testing.T) {
		resp, err := http.Get(ts.URL + "/mcp")
		if err != nil {
			t.Fatalf("GET failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusMethodNotAllowed)
		}
	})

	t.Run("notifications are accepted without a body", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","method":"notifications/initialized"}`)
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusAccepted {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusAccepted)
		}
	})
}

var codeRe = regexp.MustCompile(`code=([0-9a-f-]{36})`)

func TestStreamableHTTP_OAuth(t *testing.T) {
	issuer, err := NewOAuthIssuer()
	if err != nil {
		t.Fatalf("NewOAuthIssuer failed: %v", err)
	}
	s := NewStreamableHTTP("127.0.0.1:0", WithOAuth(issuer))
	ts := httptest.NewServer(s.routes(echoHandler()))
	defer ts.Close()

	fetchCode := func(t *testing.T) string {
		t.Helper()
		resp, err := http.Get(ts.URL + "/oauth/authorize?client_id=cli&redirect_uri=" +
			url.QueryEscape("http://localhost/cb") + "&state=xyz")
		if err != nil {
			t.Fatalf("GET authorize failed: %v", err)
		}
		defer resp.Body.Close()
		page, _ := io.ReadAll(resp.Body)

		if !strings.Contains(string(page), "cli") || !strings.Contains(string(page), "xyz") {
			t.Fatalf("consent page does not echo client and state: %s", page)
		}
		m := codeRe.FindSubmatch(page)
		if m == nil {
			t.Fatalf("no authorization code in consent page: %s", page)
		}
		return string(m[1])
	}

	exchange := func(t *testing.T, form url.Values) (*http.Response, map[string]any) {
		t.Helper()
		resp, err := http.PostForm(ts.URL+"/oauth/token", form)
		if err != nil {
			t.Fatalf("POST token failed: %v", err)
		}
		defer resp.Body.Close()
		var body map[string]any
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode token response: %v", err)
		}
		return resp, body
	}

	t.Run("mcp requests without a token are rejected", func(t *testing.T) {
		resp := postJSON(t, ts.URL+"/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
		}
		var out protocol.Response
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
		if out.Error == nil || out.Error.Code != protocol.CodeUnauthorized {
			t.Errorf("error = %+v, want unauthorized", out.Error)
		}
	})

	t.Run("authorization code flow issues a working bearer token", func(t *testing.T) {
		code := fetchCode(t)

		resp, body := exchange(t, url.Values{
			"grant_type": {"authorization_code"},
			"code":       {code},
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("token status = %d, body %v", resp.StatusCode, body)
		}
		if body["token_type"] != "Bearer" {
			t.Errorf("token_type = %v, want Bearer", body["token_type"])
		}
		if body["expires_in"] != float64(3600) {
			t.Errorf("expires_in = %v, want 3600", body["expires_in"])
		}

		token, _ := body["access_token"].(string)
		subject, err := issuer.Verify(token)
		if err != nil {
			t.Fatalf("Verify rejected issued token: %v", err)
		}
		if subject != "cli" {
			t.Errorf("subject = %q, want cli", subject)
		}

		req, _ := http.NewRequest(http.MethodPost, ts.URL+"/mcp",
			strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`))
		req.Header.Set("Authorization", "Bearer "+token)
		mcpResp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("authorized request failed: %v", err)
		}
		defer mcpResp.Body.Close()
		if mcpResp.StatusCode != http.StatusOK {
			t.Errorf("authorized status = %d, want %d", mcpResp.StatusCode, http.StatusOK)
		}
	})

	t.Run("codes are single use", func(t *testing.T) {
		code := fetchCode(t)
		form := url.Values{
			"grant_type": {"authorization_code"},
			"code":       {code},
		}
		if resp, _ := exchange(t, form); resp.StatusCode != http.StatusOK {
			t.Fatalf("first exchange status = %d", resp.StatusCode)
		}
		resp, body := exchange(t, form)
		if resp.StatusCode != http.StatusBadRequest || body["error"] != "invalid_grant" {
			t.Errorf("reused code: status %d body %v, want invalid_grant", resp.StatusCode, body)
		}
	})

	t.Run("unsupported grant types are refused", func(t *testing.T) {
		resp, body := exchange(t, url.Values{
			"grant_type": {"client_credentials"},
		})
		if resp.StatusCode != http.StatusBadRequest || body["error"] != "unsupported_grant_type" {
			t.Errorf("status %d body %v, want unsupported_grant_type", resp.StatusCode, body)
		}
	})
}

func TestOAuthIssuer_Verify(t *testing.T) {
	issuer, err := NewOAuthIssuer()
	if err != nil {
		t.Fatalf("NewOAuthIssuer failed: %v", err)
	}

	if _, err := issuer.Verify("not-a-token"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}
