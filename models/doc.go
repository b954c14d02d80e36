// Package models implements the surrogate models consumed by a Bayesian
// optimization driver.
//
// A VBLLNetwork composes a feed-forward backbone with a variational
// Bayesian last-layer regression head. BLLModelBase provides the shared
// fit/posterior orchestration (mini-batch training with early stopping and
// best-state restore, block-diagonal joint posterior construction);
// VBLLModel adds posterior-function sampling for Thompson-sampling style
// acquisition.
package models
