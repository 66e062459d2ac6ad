package sslcert

import (
	"context"
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-acme/lego/v4/certificate"
	"github.com/go-acme/lego/v4/lego"
	"github.com/go-acme/lego/v4/registration"
	"github.com/sirupsen/logrus"
)

// Certificate 签发结果
type Certificate struct {
	CertPEM   string
	KeyPEM    string
	Issuer    string
	ExpiresAt time.Time
}

// Issuer 证书签发
type Issuer interface {
	Issue(ctx context.Context, domain string) (*Certificate, error)
}

// User implements registration.User interface for lego
type User struct {
	Email        string
	Registration *registration.Resource
	key          crypto.PrivateKey
}

func (u *User) GetEmail() string {
	return u.Email
}

func (u *User) GetRegistration() *registration.Resource {
	return u.Registration
}

func (u *User) GetPrivateKey() crypto.PrivateKey {
	return u.key
}

// LegoIssuer 通过 lego HTTP-01 签发
type LegoIssuer struct {
	directoryURL string
	provider     *HTTPProvider
	log          *logrus.Entry

	mu   sync.Mutex
	user *User
}

// NewLegoIssuer 创建签发器，账户在首次签发时注册
func NewLegoIssuer(email, directoryURL string, provider *HTTPProvider, log *logrus.Entry) (*LegoIssuer, error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate account key: %w", err)
	}
	return &LegoIssuer{
		directoryURL: directoryURL,
		provider:     provider,
		log:          log.WithField("component", "acme-issuer"),
		user:         &User{Email: email, key: key},
	}, nil
}

func (i *LegoIssuer) client() (*lego.Client, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	config := lego.NewConfig(i.user)
	config.CADirURL = i.directoryURL

	client, err := lego.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create lego client: %w", err)
	}
	if err := client.Challenge.SetHTTP01Provider(i.provider); err != nil {
		return nil, fmt.Errorf("failed to set HTTP-01 provider: %w", err)
	}

	if i.user.Registration == nil {
		reg, err := client.Registration.Register(registration.RegisterOptions{TermsOfServiceAgreed: true})
		if err != nil {
			return nil, fmt.Errorf("failed to register ACME account: %w", err)
		}
		i.user.Registration = reg
		i.log.WithField("uri", reg.URI).Info("ACME account registered")
	}
	return client, nil
}

// Issue 为单个域名签发证书
func (i *LegoIssuer) Issue(ctx context.Context, domain string) (*Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	client, err := i.client()
	if err != nil {
		return nil, err
	}

	res, err := client.Certificate.Obtain(certificate.ObtainRequest{
		Domains: []string{domain},
		Bundle:  true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to obtain certificate: %w", err)
	}

	issuer, expiresAt, err := parseLeaf(res.Certificate)
	if err != nil {
		return nil, err
	}

	i.log.WithFields(logrus.Fields{"domain": domain, "expires_at": expiresAt}).Info("certificate issued")
	return &Certificate{
		CertPEM:   string(res.Certificate),
		KeyPEM:    string(res.PrivateKey),
		Issuer:    issuer,
		ExpiresAt: expiresAt,
	}, nil
}

// parseLeaf 读取第一张证书的签发者和过期时间
func parseLeaf(certPEM []byte) (string, time.Time, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil {
		return "", time.Time{}, errors.New("failed to decode certificate PEM")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to parse certificate: %w", err)
	}
	return cert.Issuer.CommonName, cert.NotAfter, nil
}
