// Package huggingface verifies Hugging Face access tokens against the whoami
// API before a diarization run spends minutes downloading gated models.
package huggingface
