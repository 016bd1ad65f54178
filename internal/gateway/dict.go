package gateway

import "context"

const (
	dictPath           = "/api/auth/common/dic"
	businessConfigPath = "/console/businessModule/getConfig"
)

// GetDict fetches the data dictionary named code. prefix, when set, is put in
// front of the dictionary path; showAll asks for the "all" option too.
func (c *Client) GetDict(ctx context.Context, code string, showAll bool, prefix string) Result {
	return c.Get(ctx, prefix+dictPath, map[string]any{
		"code":    code,
		"showAll": showAll,
	}, nil)
}

// GetBusinessConfig fetches one configuration entry of a business module.
func (c *Client) GetBusinessConfig(ctx context.Context, moduleCode, configCode string) Result {
	return c.Get(ctx, businessConfigPath, map[string]any{
		"moduleCode": moduleCode,
		"configCode": configCode,
	}, nil)
}
