package logging

import (
	"context"
)

const (
	DeviceIDKey    = "device_id"
	MessageIDKey   = "message_id"
	MessageKindKey = "message_kind"
	ServiceNameKey = "service_name"
)

func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, DeviceIDKey, deviceID)
}

func WithMessageID(ctx context.Context, messageID string) context.Context {
	return context.WithValue(ctx, MessageIDKey, messageID)
}

func WithMessageKind(ctx context.Context, kind string) context.Context {
	return context.WithValue(ctx, MessageKindKey, kind)
}

func WithServiceName(ctx context.Context, serviceName string) context.Context {
	return context.WithValue(ctx, ServiceNameKey, serviceName)
}

func GetDeviceID(ctx context.Context) string {
	if deviceID, ok := ctx.Value(DeviceIDKey).(string); ok {
		return deviceID
	}
	return ""
}

func GetMessageID(ctx context.Context) string {
	if messageID, ok := ctx.Value(MessageIDKey).(string); ok {
		return messageID
	}
	return ""
}

func GetMessageKind(ctx context.Context) string {
	if kind, ok := ctx.Value(MessageKindKey).(string); ok {
		return kind
	}
	return ""
}

func GetServiceName(ctx context.Context) string {
	if serviceName, ok := ctx.Value(ServiceNameKey).(string); ok {
		return serviceName
	}
	return ""
}

func GetLogFields(ctx context.Context) []interface{} {
	fields := make([]interface{}, 0, 8)

	if deviceID := GetDeviceID(ctx); deviceID != "" {
		fields = append(fields, "device_id", deviceID)
	}

	if messageID := GetMessageID(ctx); messageID != "" {
		fields = append(fields, "message_id", messageID)
	}

	if kind := GetMessageKind(ctx); kind != "" {
		fields = append(fields, "message_kind", kind)
	}

	if serviceName := GetServiceName(ctx); serviceName != "" {
		fields = append(fields, "service_name", serviceName)
	}

	return fields
}
