package utils

import (
	"errors"
)

var (
	// URL相关错误
	ErrInvalidURL          = errors.New("invalid URL")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNoURLFound          = errors.New("no recognizable URL in input")

	// 解析相关错误
	ErrVideoNotFound    = errors.New("video not found")
	ErrEmptyAPIResponse = errors.New("API returned empty data")
	ErrNoVideoURL       = errors.New("failed to extract video URL from page")
	ErrStateNotFound    = errors.New("embedded state data not found in page")

	// 系统相关错误
	ErrTimeout        = errors.New("parse timeout")
	ErrCacheMiss      = errors.New("cache miss")
	ErrFFprobeMissing = errors.New("ffprobe binary not found")
	ErrFFmpegMissing  = errors.New("ffmpeg binary not found")

	// 转录相关错误
	ErrTranscribeFailed = errors.New("transcription failed")
	ErrNoAudioURL       = errors.New("no audio URL available")
	ErrOSSNotConfigured = errors.New("OSS not configured, required for local file transcription")
)
