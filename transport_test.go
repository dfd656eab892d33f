package rubix

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
)

func TestNewTransportPlain(t *testing.T) {
	transport, err := newTransport(false, true)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "newTransport()", err)
	}
	if transport.TLSClientConfig != nil {
		t.Error("Plain transport should not carry TLS settings")
	}
}

func TestNewTransportSecure(t *testing.T) {
	for _, verify := range []bool{true, false} {
		transport, err := newTransport(true, verify)
		if err != nil {
			t.Fatalf(expectedNoErrorMsg, "newTransport()", err)
		}
		if transport.TLSClientConfig == nil {
			t.Fatal("Secure transport needs TLS settings")
		}
		if transport.TLSClientConfig.InsecureSkipVerify == verify {
			t.Errorf("verify=%v produced InsecureSkipVerify=%v", verify, transport.TLSClientConfig.InsecureSkipVerify)
		}
		if _, ok := transport.TLSNextProto["h2"]; !ok {
			t.Error("Expected HTTP/2 to be registered on the secure transport")
		}
	}
}

func TestSecureClientCertificateVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(predictionsBody))
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	port, _ := strconv.Atoi(u.Port())

	strict, err := New(u.Hostname(), port, WithSecure(true))
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "New()", err)
	}
	if _, err := strict.Predict(context.Background(), testSamples); !IsTransportError(err) {
		t.Errorf("Expected the self-signed certificate to be rejected, got %v", err)
	}

	lax, err := New(u.Hostname(), port, WithSecure(true), WithVerifyCertificate(false))
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "New()", err)
	}
	if _, err := lax.Predict(context.Background(), testSamples); err != nil {
		t.Errorf("Expected the call to succeed without verification, got %v", err)
	}
}

func TestNewFromConfigVerifiesCertificatesByDefault(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_, _ = w.Write([]byte(predictionsBody))
	}))
	defer server.Close()

	u, _ := url.Parse(server.URL)
	port, _ := strconv.Atoi(u.Port())

	strict, err := NewFromConfig(Config{Host: u.Hostname(), Port: port, Secure: true})
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewFromConfig()", err)
	}
	if _, err := strict.Predict(context.Background(), testSamples); !IsTransportError(err) {
		t.Errorf("Expected the self-signed certificate to be rejected, got %v", err)
	}

	lax, err := NewFromConfig(Config{Host: u.Hostname(), Port: port, Secure: true, InsecureSkipVerify: true})
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, "NewFromConfig()", err)
	}
	if _, err := lax.Predict(context.Background(), testSamples); err != nil {
		t.Errorf("Expected the call to succeed without verification, got %v", err)
	}
}
