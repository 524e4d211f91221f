package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"

	"lms_client/internal/apiclient"
)

// getKeyed 兼容 {"course": {...}} 与裸对象两种返回
func getKeyed(ctx context.Context, api *apiclient.Client, path, key string, out any) error {
	return getKeyedQuery(ctx, api, path, nil, key, out)
}

func getKeyedQuery(ctx context.Context, api *apiclient.Client, path string, q url.Values, key string, out any) error {
	var raw json.RawMessage
	if err := api.Get(ctx, path, q, &raw); err != nil {
		return err
	}
	return unwrapKey(raw, key, out)
}

func unwrapKey(raw json.RawMessage, key string, out any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '{' {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err == nil {
			if inner, ok := obj[key]; ok {
				return decodeInto(inner, out)
			}
		}
	}
	return decodeInto(raw, out)
}

func decodeInto(raw json.RawMessage, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return &apiclient.Error{Kind: apiclient.KindDecode, Err: err}
	}
	return nil
}

// sendKeyed 写操作的返回同样可能带一层 key
func sendKeyed(ctx context.Context, api *apiclient.Client, method, path string, body any, key string, out any) error {
	var raw json.RawMessage
	if err := api.Do(ctx, method, path, nil, body, &raw); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return unwrapKey(raw, key, out)
}
