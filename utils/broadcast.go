package utils

// BroadcastSubmitResult 由 websocket 层在启动时注入，避免反向依赖
var BroadcastSubmitResult func(message string)
