// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package binder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Binding metrics
	bindTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "simplifiedapp_bind_total",
			Help: "Total number of argument bindings by result",
		},
		[]string{"result"},
	)

	// Call metrics
	callDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "simplifiedapp_call_duration_seconds",
			Help:    "Duration of target calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
		},
		[]string{"result"},
	)
)
