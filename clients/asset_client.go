package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	Logger "github.com/collabsvcs/discussion/utils/log"
)

// AssetClient queries the asset management service for ownership and public
// metadata.
type AssetClient struct {
	host   string
	client *http.Client
}

func NewAssetClient(host string) *AssetClient {
	return &AssetClient{host: strings.TrimRight(host, "/"), client: &http.Client{}}
}

// Asset is the slice of the asset service payload this service reads.
type Asset struct {
	Data struct {
		Public struct {
			Name       string `json:"name"`
			OwnerId    string `json:"despUserId"`
			Visibility string `json:"visibility"`
		} `json:"public"`
	} `json:"data"`
}

// GetAsset fetches an asset by id.
func (c *AssetClient) GetAsset(ctx context.Context, assetId string) (*Asset, error) {
	res, err := c.get(ctx, assetId)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		Logger.Log.Errorf("fail to get asset %s, status %d", assetId, res.StatusCode)
		return nil, &AssetRetrievalError{Status: res.StatusCode}
	}

	var asset Asset
	if err := json.NewDecoder(res.Body).Decode(&asset); err != nil {
		Logger.Log.Errorf("malformed asset service payload: %v", err)
		return nil, &GenericError{Code: AssetErrorCode, Message: "could not call asset-management service"}
	}
	Logger.Log.Debugf("asset %s fetched", assetId)
	return &asset, nil
}

// GetAssetOwner returns the user id owning the asset.
func (c *AssetClient) GetAssetOwner(ctx context.Context, assetId string) (string, error) {
	asset, err := c.GetAsset(ctx, assetId)
	if err != nil {
		return "", err
	}
	return asset.Data.Public.OwnerId, nil
}

func (c *AssetClient) get(ctx context.Context, assetId string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.host, assetId), nil)
	if err != nil {
		return nil, err
	}
	res, err := c.client.Do(req)
	if err != nil {
		Logger.Log.Errorf("fail to contact asset service: %v", err)
		return nil, &GenericError{Code: AssetErrorCode, Message: "could not call asset-management service"}
	}
	return res, nil
}
