// Package polly provides the text-to-speech synthesizer backed by AWS
// Polly. Credentials are validated against STS before any synthesis call.
package polly

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/voicefin/voicefin/log"
	"github.com/voicefin/voicefin/voice"
)

var _ voice.Synthesizer = (*Synthesizer)(nil)

// DefaultVoiceID is the Polly voice used when none is configured.
const DefaultVoiceID = "Joanna"

// supportedRegions is the region whitelist for synthesis.
var supportedRegions = map[string]struct{}{
	"us-east-1": {},
	"us-west-2": {},
	"eu-west-1": {},
}

// Synthesizer converts narrative text to MP3 audio via AWS Polly.
type Synthesizer struct {
	region          string
	accessKeyID     string
	secretAccessKey string
	voiceID         string
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithVoiceID overrides the Polly voice.
func WithVoiceID(voiceID string) Option {
	return func(s *Synthesizer) {
		s.voiceID = voiceID
	}
}

// NewSynthesizer creates a synthesizer with static credentials.
func NewSynthesizer(region, accessKeyID, secretAccessKey string, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		region:          region,
		accessKeyID:     accessKeyID,
		secretAccessKey: secretAccessKey,
		voiceID:         DefaultVoiceID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize implements voice.Synthesizer. Validation failures short-circuit
// before the provider is contacted; no partial audio is ever returned.
func (s *Synthesizer) Synthesize(ctx context.Context, narrative string) ([]byte, error) {
	sanitized, err := voice.ValidateNarrative(narrative)
	if err != nil {
		return nil, err
	}
	if s.accessKeyID == "" || s.secretAccessKey == "" {
		return nil, voice.ErrMissingCredentials
	}
	if _, ok := supportedRegions[s.region]; !ok {
		return nil, fmt.Errorf("%w: %s", voice.ErrUnsupportedRegion, s.region)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(s.region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.accessKeyID, s.secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	identity, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, fmt.Errorf("aws credential validation failed: %w", err)
	}
	log.Debugf("aws credentials validated for account %s", aws.ToString(identity.Account))

	resp, err := polly.NewFromConfig(cfg).SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(sanitized),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      types.VoiceId(s.voiceID),
	})
	if err != nil {
		return nil, fmt.Errorf("polly synthesis failed: %w", err)
	}
	defer resp.AudioStream.Close()

	audio, err := io.ReadAll(resp.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read audio stream: %w", err)
	}
	return audio, nil
}
