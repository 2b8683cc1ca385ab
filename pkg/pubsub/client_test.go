package pubsub

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/orderhub-backend/pkg/config"
)

func TestCompactDropsBlankAndDuplicateResources(t *testing.T) {
	got := compact([]Resource{
		Subscription(" orders-sub "),
		Subscription(""),
		Topic("orders"),
		Subscription("orders-sub"),
		Topic("orders-sub"),
	})
	require.Equal(t, []Resource{
		Subscription("orders-sub"),
		Topic("orders"),
		Topic("orders-sub"),
	}, got)
}

func TestResourcePath(t *testing.T) {
	cases := []struct {
		in   Resource
		want string
	}{
		{Subscription("sub"), "projects/proj/subscriptions/sub"},
		{Subscription("projects/other/subscriptions/sub"), "projects/other/subscriptions/sub"},
		{Topic(" topic "), "projects/proj/topics/topic"},
		{Topic("projects/other/topics/t"), "projects/other/topics/t"},
		// a subscription path is not a topic path
		{Topic("projects/other/subscriptions/s"), "projects/proj/topics/projects/other/subscriptions/s"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, resourcePath("proj", tc.in), tc.in.String())
	}
}

func TestNilClientHandles(t *testing.T) {
	var c *Client
	require.Nil(t, c.Publisher("topic"))
	require.Nil(t, c.Subscriber("sub"))
	require.ErrorIs(t, c.Ping(t.Context()), errClosed)
	require.NoError(t, c.Close())
}

func TestClientOptions(t *testing.T) {
	require.Empty(t, clientOptions(config.GCPConfig{ProjectID: "p"}))
	require.Len(t, clientOptions(config.GCPConfig{CredentialsJSON: `{"type":"service_account"}`}), 1)
	require.Len(t, clientOptions(config.GCPConfig{ApplicationCredentials: "/tmp/creds.json"}), 1)
}
