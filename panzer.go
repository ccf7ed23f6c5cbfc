// Package panzer is the public entry point: it wires the cipher,
// credential cache, clock sync, quota accountant, request signer, and
// request facade into a single Client, the way the teacher wires its
// Sidecar from injected collaborators rather than package-level
// singletons.
package panzer

import (
	"net/http"
	"time"

	"github.com/go-logr/logr"

	"github.com/nand0san/panzer-go/config"
	"github.com/nand0san/panzer-go/internal/cipher"
	"github.com/nand0san/panzer-go/internal/clocksync"
	"github.com/nand0san/panzer-go/internal/facade"
	"github.com/nand0san/panzer-go/internal/obs"
	"github.com/nand0san/panzer-go/internal/quota"
	"github.com/nand0san/panzer-go/internal/signer"
	"github.com/nand0san/panzer-go/internal/vault"
)

// DefaultBaseURL is the exchange's production REST endpoint.
const DefaultBaseURL = "https://api.binance.com"

// Client is the gateway's public facade: construct one per API key pair,
// then call Get/Post for individual requests and CanMake/WaitUntilAdmissible
// on Accountant before sending anything the facade itself won't gate.
type Client struct {
	Cipher      *cipher.Cipher
	Credentials *vault.Cache
	Clock       *clocksync.Clock
	Accountant  *quota.Accountant
	Signer      *signer.Signer
	Facade      *facade.Facade
	Log         logr.Logger
}

// Options configures New. Store and Log are required; everything else
// has a sensible default.
type Options struct {
	Store         vault.Store
	Prompter      vault.Prompter
	Log           logr.Logger
	Metrics       *obs.Metrics
	BaseURL       string
	HTTPClient    *http.Client
	APIKeyName    string
	SecretKeyName string
	Config        config.Config
}

// New constructs a Client. The cipher key is derived from host entropy
// (spec §4.1); callers needing a fixed test seed should construct the
// collaborators directly instead of going through New.
func New(opts Options) (*Client, error) {
	ciph, err := cipher.NewFromHost()
	if err != nil {
		return nil, err
	}

	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	cache := vault.NewCache(opts.Store, ciph, opts.Prompter, opts.Log)
	creds := signer.NewCredentials(cache, opts.APIKeyName, opts.SecretKeyName)

	secretKey, err := creds.SecretKey()
	if err != nil {
		return nil, err
	}
	sgnr := signer.New(secretKey)

	clock := clocksync.New(&httpTimeFetcher{baseURL: baseURL, client: httpClient}, opts.Log)

	var metrics quota.Metrics
	if opts.Metrics != nil {
		metrics = opts.Metrics
	}
	accountant := quota.New(opts.Config.QuotaLimits(), clock, opts.Log, metrics, opts.Config.HousekeepingSleepCap(), opts.Config.ClockDriftWarnMillis)

	fac := facade.New(baseURL, httpClient, sgnr, creds, clock, accountant, opts.Log, opts.Config.RecvWindowMillis)

	return &Client{
		Cipher:      ciph,
		Credentials: cache,
		Clock:       clock,
		Accountant:  accountant,
		Signer:      sgnr,
		Facade:      fac,
		Log:         opts.Log,
	}, nil
}
