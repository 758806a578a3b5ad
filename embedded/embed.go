// Package embedded содержит встроенные ресурсы приложения.
package embedded

import (
	_ "embed"
)

// IconIdle - иконка в состоянии ожидания (серое кольцо).
//
//go:embed icon_idle.png
var IconIdle []byte

// IconListening - иконка во время непрерывного прослушивания (зелёная точка с волнами).
//
//go:embed icon_listening.png
var IconListening []byte

// IconRecording - иконка во время записи push-to-talk (красный круг).
//
//go:embed icon_recording.png
var IconRecording []byte

// IconProcessing - иконка во время обработки (оранжевое разорванное кольцо).
//
//go:embed icon_processing.png
var IconProcessing []byte
