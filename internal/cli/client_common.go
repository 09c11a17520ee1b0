package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ssh-clipboard/internal/cli/client/profile"
	"ssh-clipboard/internal/cli/client/target"
	"ssh-clipboard/internal/cli/client/transport"
	"ssh-clipboard/internal/protocol"
)

// resolveClientTarget merges --target / --host+--user+--port / a named
// --profile into one target.Target plus the identity file and ssh options
// that apply, per §4.4's target-resolution rules.
func resolveClientTarget(cmd *cobra.Command, targetFlag, host, user string, port int, identity string, sshOpts []string, profileName string) (target.Target, string, []string, error) {
	var top *profile.TopLevel
	if viper.IsSet("profiles") || viper.IsSet("identity") || viper.IsSet("options") {
		var p profile.TopLevel
		if err := viper.Unmarshal(&p); err == nil {
			top = &p
		}
	}

	if profileName == "" && targetFlag == "" && host == "" && top != nil && len(top.Profiles) > 0 {
		chosen, err := profile.Pick(top)
		if err == nil {
			profileName = chosen
		}
	}

	var prof *profile.Profile
	if profileName != "" {
		found, ok := profile.Find(top, profileName)
		if !ok {
			return target.Target{}, "", nil, fmt.Errorf("profile %q not found in configuration", profileName)
		}
		prof = &found
	}
	merged := profile.Merge(top, prof)

	var t target.Target
	var err error
	switch {
	case targetFlag != "":
		t, err = target.Parse(targetFlag)
	case host != "" && user != "":
		t = target.Target{User: user, Host: host, Port: uint16(port)}
	case merged.Target != "":
		t, err = target.Parse(merged.Target)
		if err == nil && merged.Port != 0 {
			t.Port = uint16(merged.Port)
		}
	default:
		return target.Target{}, "", nil, fmt.Errorf("no target specified: use --target, --host/--user, or --profile")
	}
	if err != nil {
		return target.Target{}, "", nil, err
	}
	if port != 0 {
		t.Port = uint16(port)
	}

	if identity == "" {
		identity = merged.IdentityFile
	}
	options := sshOpts
	if len(options) == 0 {
		options = merged.Options
	}
	return t, identity, options, nil
}

func resolveMaxSize(flagVal int64) uint32 {
	if flagVal > 0 {
		return uint32(flagVal)
	}
	return uint32(viper.GetInt64("max-size"))
}

func resolveTimeoutMs(flagVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return viper.GetInt("timeout-ms")
}

func resolveTimeout(flagValMs int) time.Duration {
	return time.Duration(resolveTimeoutMs(flagValMs)) * time.Millisecond
}

func resolveResyncMaxBytes(flagVal int) int {
	if flagVal > 0 {
		return flagVal
	}
	return viper.GetInt("resync-max-bytes")
}

func resolveStrictFrames(flagVal bool) bool {
	if flagVal {
		return true
	}
	return viper.GetBool("strict-frames")
}

// classifyAndReport writes any diagnostic about the outcome of a client
// transport.Run to stderr (nothing goes to stdout), and returns the
// process exit code per §7's propagation policy: the framed
// response is authoritative when present, else the SSH child's exit status
// and stderr.
func classifyAndReport(result transport.Result, runErr error) int {
	if runErr != nil {
		fmt.Fprintln(os.Stderr, runErr)
		return protocol.ExitSSHFailure
	}
	if result.Response != nil {
		return reportResponse(*result.Response)
	}

	fmt.Fprintln(os.Stderr, "no valid response frame from remote")
	if result.FrameErr != nil {
		fmt.Fprintln(os.Stderr, "frame error:", result.FrameErr)
	}
	if len(result.Stderr) > 0 {
		os.Stderr.Write(result.Stderr)
	}
	if result.TimedOut {
		return protocol.ExitSSHFailure
	}
	if result.ExitCode != 0 {
		return protocol.ExitSSHFailure
	}
	return protocol.ExitInvalidRequest
}

func reportResponse(resp protocol.Response) int {
	switch resp.Kind {
	case protocol.ResponseOk:
		return protocol.ExitOK
	case protocol.ResponseError:
		fmt.Fprintf(os.Stderr, "%s: %s\n", resp.Error.Code, resp.Error.Message)
		return protocol.ExitCode(resp.Error.Code)
	default:
		return protocol.ExitOK
	}
}
