package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"go.uber.org/zap"

	"github.com/YukiTheBread/auto-parking-lot-system/internal/logger"
)

var ErrPlateNotRecognized = errors.New("no license plate recognized in image")

// TextDetector is the part of the Rekognition client used for plate reading.
type TextDetector interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

type LPRService struct {
	detector     TextDetector
	platePattern *regexp.Regexp
	logger       *zap.Logger
}

func NewLPRService(detector TextDetector, platePattern string, logger *zap.Logger) (*LPRService, error) {
	re, err := regexp.Compile(platePattern)
	if err != nil {
		return nil, fmt.Errorf("invalid plate pattern: %w", err)
	}
	return &LPRService{detector: detector, platePattern: re, logger: logger}, nil
}

// RecognizePlate returns the highest-confidence detected text that matches the
// plate pattern once spaces, dots and dashes are removed.
func (s *LPRService) RecognizePlate(ctx context.Context, image []byte) (string, float32, error) {
	log := logger.FromContext(ctx, s.logger)

	result, err := s.detector.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{Bytes: image},
	})
	if err != nil {
		return "", 0, &UpstreamError{Op: "recognize_plate", Step: "detect_text", Err: err}
	}

	var best string
	var bestConfidence float32
	for _, detection := range result.TextDetections {
		if detection.DetectedText == nil || detection.Confidence == nil {
			continue
		}
		if detection.Type != types.TextTypesLine && detection.Type != types.TextTypesWord {
			continue
		}
		candidate := normalizePlate(*detection.DetectedText)
		if !s.platePattern.MatchString(candidate) {
			log.Debug("text rejected by plate pattern", zap.String("text", candidate))
			continue
		}
		if *detection.Confidence > bestConfidence {
			best, bestConfidence = candidate, *detection.Confidence
		}
	}

	if best == "" {
		log.Info("no plate found in image", zap.Int("detections", len(result.TextDetections)))
		return "", 0, ErrPlateNotRecognized
	}
	log.Info("plate recognized", zap.String("plate_number", best), zap.Float32("confidence", bestConfidence))
	return best, bestConfidence, nil
}

var plateSeparators = strings.NewReplacer(" ", "", ".", "", "-", "")

func normalizePlate(text string) string {
	return strings.ToUpper(plateSeparators.Replace(strings.TrimSpace(text)))
}
